// Package mcp exposes the artifact catalog to MCP clients over stdio.
//
// The server is a stateless read-only facade over the database: every tool
// resolves against the on-disk layout at call time, so an external analysis
// stage writing new documents is picked up without restarting the server.
package mcp

import (
	"context"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/purs3lab/arbitrar/internal/database"
	"github.com/purs3lab/arbitrar/internal/logging"
)

// Server wraps the MCP SDK server around one opened database.
type Server struct {
	MCPServer *sdkmcp.Server

	db *database.Database
}

// NewServer creates an MCP server with the catalog tools registered.
func NewServer(db *database.Database) *Server {
	s := &Server{db: db}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "arbitrar", Version: "dev"},
		nil,
	)
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_packages",
		Description: "List the registered packages with their fetch and build status.",
	}, s.handleListPackages)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_bc_files",
		Description: "List the analysis units (bc files) of one package or of all packages.",
	}, s.handleListBCFiles)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "num_slices",
		Description: "Count slice documents, optionally filtered by function and/or bc file fragment.",
	}, s.handleNumSlices)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_slice",
		Description: "Fetch one slice document by function, bc file fragment and slice id.",
	}, s.handleGetSlice)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_trace",
		Description: "Fetch one def-use-graph document by function, bc file fragment, slice id and trace id.",
	}, s.handleGetTrace)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_feature",
		Description: "Fetch one feature document by function, bc file fragment, slice id and trace id.",
	}, s.handleGetFeature)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "find_bc",
		Description: "Resolve a bc file name fragment to the full analysis unit name.",
	}, s.handleFindBC)
}

// --- Tool input/output types ---

type listPackagesInput struct{}

type packageInfo struct {
	Name        string `json:"name"`
	FetchStatus string `json:"fetch_status"`
	BuildStatus string `json:"build_status"`
	NumBCFiles  int    `json:"num_bc_files"`
}

type listPackagesOutput struct {
	Packages []packageInfo `json:"packages"`
}

type listBCFilesInput struct {
	Package string `json:"package,omitempty" jsonschema:"restrict to one package (default: all packages)"`
	Full    bool   `json:"full,omitempty" jsonschema:"return full paths instead of base names"`
}

type listBCFilesOutput struct {
	BCFiles []string `json:"bc_files"`
}

type numSlicesInput struct {
	Function string `json:"function,omitempty" jsonschema:"restrict to one analyzed function"`
	BC       string `json:"bc,omitempty" jsonschema:"restrict to bc files whose name contains this fragment"`
}

type numSlicesOutput struct {
	NumSlices int `json:"num_slices"`
}

type getSliceInput struct {
	Function string `json:"function" jsonschema:"analyzed function name"`
	BC       string `json:"bc" jsonschema:"bc file name or fragment"`
	SliceID  int    `json:"slice_id" jsonschema:"slice id within the function/bc namespace"`
}

type getTraceInput struct {
	Function string `json:"function" jsonschema:"analyzed function name"`
	BC       string `json:"bc" jsonschema:"bc file name or fragment"`
	SliceID  int    `json:"slice_id" jsonschema:"slice id within the function/bc namespace"`
	TraceID  int    `json:"trace_id" jsonschema:"trace id within the slice"`
}

type documentOutput struct {
	BC       string            `json:"bc"`
	Document database.Document `json:"document"`
}

type findBCInput struct {
	Fragment string `json:"fragment" jsonschema:"bc file name fragment to resolve"`
}

type findBCOutput struct {
	BC    string `json:"bc"`
	Found bool   `json:"found"`
}

// --- Tool handlers ---

func (s *Server) handleListPackages(_ context.Context, _ *sdkmcp.CallToolRequest, _ listPackagesInput) (*sdkmcp.CallToolResult, listPackagesOutput, error) {
	pkgs := s.db.Packages()
	out := listPackagesOutput{Packages: make([]packageInfo, 0, len(pkgs))}
	for _, p := range pkgs {
		out.Packages = append(out.Packages, packageInfo{
			Name:        p.Name,
			FetchStatus: p.FetchStatus(),
			BuildStatus: string(p.Build.Result),
			NumBCFiles:  len(p.Build.BCFiles),
		})
	}
	return nil, out, nil
}

func (s *Server) handleListBCFiles(_ context.Context, _ *sdkmcp.CallToolRequest, input listBCFilesInput) (*sdkmcp.CallToolResult, listBCFilesOutput, error) {
	seq, err := s.db.BCFiles(input.Package, input.Full)
	if err != nil {
		return nil, listBCFilesOutput{}, fmt.Errorf("list_bc_files: %w", err)
	}
	out := listBCFilesOutput{BCFiles: []string{}}
	for bc := range seq {
		out.BCFiles = append(out.BCFiles, bc)
	}
	return nil, out, nil
}

func (s *Server) handleNumSlices(_ context.Context, _ *sdkmcp.CallToolRequest, input numSlicesInput) (*sdkmcp.CallToolResult, numSlicesOutput, error) {
	n, err := s.db.NumSlices(input.Function, input.BC)
	if err != nil {
		return nil, numSlicesOutput{}, fmt.Errorf("num_slices: %w", err)
	}
	return nil, numSlicesOutput{NumSlices: n}, nil
}

func (s *Server) handleGetSlice(_ context.Context, _ *sdkmcp.CallToolRequest, input getSliceInput) (*sdkmcp.CallToolResult, documentOutput, error) {
	bc, ok := s.db.FindBCName(input.BC)
	if !ok {
		return nil, documentOutput{}, fmt.Errorf("unknown bc file %q", input.BC)
	}
	doc, err := s.db.Slice(input.Function, bc, input.SliceID)
	if err != nil {
		return nil, documentOutput{}, fmt.Errorf("get_slice: %w", err)
	}
	return nil, documentOutput{BC: bc, Document: doc}, nil
}

func (s *Server) handleGetTrace(_ context.Context, _ *sdkmcp.CallToolRequest, input getTraceInput) (*sdkmcp.CallToolResult, documentOutput, error) {
	bc, ok := s.db.FindBCName(input.BC)
	if !ok {
		return nil, documentOutput{}, fmt.Errorf("unknown bc file %q", input.BC)
	}
	doc, err := s.db.Trace(input.Function, bc, input.SliceID, input.TraceID)
	if err != nil {
		return nil, documentOutput{}, fmt.Errorf("get_trace: %w", err)
	}
	return nil, documentOutput{BC: bc, Document: doc}, nil
}

func (s *Server) handleGetFeature(_ context.Context, _ *sdkmcp.CallToolRequest, input getTraceInput) (*sdkmcp.CallToolResult, documentOutput, error) {
	bc, ok := s.db.FindBCName(input.BC)
	if !ok {
		return nil, documentOutput{}, fmt.Errorf("unknown bc file %q", input.BC)
	}
	doc, err := s.db.Feature(input.Function, bc, input.SliceID, input.TraceID)
	if err != nil {
		return nil, documentOutput{}, fmt.Errorf("get_feature: %w", err)
	}
	return nil, documentOutput{BC: bc, Document: doc}, nil
}

func (s *Server) handleFindBC(_ context.Context, _ *sdkmcp.CallToolRequest, input findBCInput) (*sdkmcp.CallToolResult, findBCOutput, error) {
	bc, found := s.db.FindBCName(input.Fragment)
	if !found {
		logging.New("mcp").Debug("fragment did not resolve", "fragment", input.Fragment)
	}
	return nil, findBCOutput{BC: bc, Found: found}, nil
}

// Run serves MCP over stdio until the client disconnects or ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	return s.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}

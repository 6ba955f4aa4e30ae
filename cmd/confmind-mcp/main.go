// confmind-mcp exposes the conference-mind engine over MCP stdio: ingest a
// transcript, ask routed questions, and inspect speakers, themes and
// tensions from any MCP client.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/vthunder/confmind/internal/config"
	"github.com/vthunder/confmind/internal/mind"
	"github.com/vthunder/confmind/internal/render"
	"github.com/vthunder/confmind/internal/resolve"
	"github.com/vthunder/confmind/internal/route"
	"github.com/vthunder/confmind/internal/store"
	"github.com/vthunder/confmind/internal/types"
)

type app struct {
	engine *mind.Engine
	store  *store.Store
}

func main() {
	// Log to stderr so stdout is clean for JSON-RPC
	log.SetOutput(os.Stderr)
	log.SetPrefix("[confmind-mcp] ")

	godotenv.Load()

	statePath := os.Getenv("CONFMIND_STATE_PATH")
	if statePath == "" {
		statePath = "state"
	}

	cfg, err := config.Load(os.Getenv("CONFMIND_CONFIG"))
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	st, err := store.Open(statePath)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer st.Close()

	a := &app{engine: mind.NewEngine(cfg), store: st}

	s := server.NewMCPServer(
		"confmind",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	s.AddTool(ingestTool(), a.handleIngest)
	s.AddTool(askTool(), a.handleAsk)
	s.AddTool(listTool(), a.handleList)
	s.AddTool(speakersTool(), a.handleSpeakers)
	s.AddTool(themesTool(), a.handleThemes)
	s.AddTool(tensionsTool(), a.handleTensions)
	s.AddTool(mergeTool(), a.handleMerge)
	s.AddTool(deleteTool(), a.handleDelete)

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

func ingestTool() mcp.Tool {
	return mcp.NewTool("ingest_conference",
		mcp.WithDescription("Ingest a conference transcript (SRT, VTT, YouTube dump, 'Name: text' labeled, or raw prose). Extracts speakers, communication-style and expertise profiles, cross-speaker themes and tensions, and stores the result for querying."),
		mcp.WithString("transcript",
			mcp.Required(),
			mcp.Description("Full transcript text"),
		),
		mcp.WithString("name",
			mcp.Description("Conference name. Auto-generated from the current date if omitted."),
		),
	)
}

func (a *app) handleIngest(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := req.Params.Arguments.(map[string]any)
	transcript, _ := args["transcript"].(string)
	if transcript == "" {
		return mcp.NewToolResultError("transcript is required"), nil
	}
	name, _ := args["name"].(string)

	m, err := a.engine.Ingest(name, []mind.Session{{Text: transcript}})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("ingest failed: %v", err)), nil
	}
	if err := a.store.Save(m); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("save failed: %v", err)), nil
	}
	return mcp.NewToolResultText(render.Overview(m)), nil
}

func askTool() mcp.Tool {
	return mcp.NewTool("ask_conference",
		mcp.WithDescription("Ask a question of an ingested conference. Routes to the most relevant speaker(s) and returns attributed passages; when tension-linked speakers tie, both sides are returned and flagged as opposing."),
		mcp.WithString("question", mcp.Required(), mcp.Description("Question to route")),
		mcp.WithString("conference", mcp.Required(), mcp.Description("Conference name or slug")),
		mcp.WithString("speaker", mcp.Description("Restrict to a specific speaker by name")),
	)
}

func (a *app) handleAsk(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := req.Params.Arguments.(map[string]any)
	question, _ := args["question"].(string)
	speaker, _ := args["speaker"].(string)

	m, errResult := a.load(args)
	if errResult != nil {
		return errResult, nil
	}
	results, err := a.engine.Route(m, question, route.Options{TargetSpeaker: speaker})
	if errors.Is(err, route.ErrNoRelevantSpeaker) {
		return mcp.NewToolResultText(fmt.Sprintf("No speaker in %q covers that question.", m.Name)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(render.Answer(results, m)), nil
}

func listTool() mcp.Tool {
	return mcp.NewTool("list_conferences",
		mcp.WithDescription("List all stored conference minds with speaker and segment counts."),
	)
}

func (a *app) handleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	metas, err := a.store.List()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(metas) == 0 {
		return mcp.NewToolResultText("No conferences stored yet."), nil
	}
	var b strings.Builder
	for _, m := range metas {
		fmt.Fprintf(&b, "- %s (%s): %d speakers, %d segments\n", m.Name, m.Slug, m.SpeakerCount, m.SegmentCount)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func speakersTool() mcp.Tool {
	return mcp.NewTool("conference_speakers",
		mcp.WithDescription("Show the speakers of a conference with their soul (communication style) and skills (expertise) profiles."),
		mcp.WithString("conference", mcp.Required(), mcp.Description("Conference name or slug")),
	)
}

func (a *app) handleSpeakers(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := req.Params.Arguments.(map[string]any)
	m, errResult := a.load(args)
	if errResult != nil {
		return errResult, nil
	}
	var b strings.Builder
	for _, sp := range m.Speakers {
		b.WriteString(render.Speaker(m, sp))
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

func themesTool() mcp.Tool {
	return mcp.NewTool("conference_themes",
		mcp.WithDescription("Show cross-speaker themes: topics at least two speakers' passages support."),
		mcp.WithString("conference", mcp.Required(), mcp.Description("Conference name or slug")),
	)
}

func (a *app) handleThemes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := req.Params.Arguments.(map[string]any)
	m, errResult := a.load(args)
	if errResult != nil {
		return errResult, nil
	}
	if len(m.Themes) == 0 {
		return mcp.NewToolResultText("No cross-speaker themes detected."), nil
	}
	var b strings.Builder
	for _, th := range m.Themes {
		fmt.Fprintf(&b, "- %s: %d speakers, %d passages\n", th.Label, len(th.Speakers), len(th.Positions))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func tensionsTool() mcp.Tool {
	return mcp.NewTool("conference_tensions",
		mcp.WithDescription("Show detected disagreements between pairs of speakers on shared themes."),
		mcp.WithString("conference", mcp.Required(), mcp.Description("Conference name or slug")),
	)
}

func (a *app) handleTensions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := req.Params.Arguments.(map[string]any)
	m, errResult := a.load(args)
	if errResult != nil {
		return errResult, nil
	}
	if len(m.Tensions) == 0 {
		return mcp.NewToolResultText("No tensions detected."), nil
	}
	var b strings.Builder
	for _, t := range m.Tensions {
		fmt.Fprintf(&b, "- %s vs %s on %q (%d contrast signals)\n", t.SpeakerA, t.SpeakerB, t.Topic, t.Markers)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func mergeTool() mcp.Tool {
	return mcp.NewTool("merge_conferences",
		mcp.WithDescription("Merge two stored conferences into a new one. Speakers are re-resolved across both alias sets and all profiles, themes and tensions are re-derived over the combined passages."),
		mcp.WithString("conference_a", mcp.Required(), mcp.Description("First conference name or slug")),
		mcp.WithString("conference_b", mcp.Required(), mcp.Description("Second conference name or slug")),
		mcp.WithString("name", mcp.Description("Name for the merged conference")),
	)
}

func (a *app) handleMerge(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := req.Params.Arguments.(map[string]any)
	confA, _ := args["conference_a"].(string)
	confB, _ := args["conference_b"].(string)
	name, _ := args["name"].(string)

	ma, err := a.store.Load(resolve.Slugify(confA))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	mb, err := a.store.Load(resolve.Slugify(confB))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	merged, err := a.engine.Merge(name, ma, mb)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("merge failed: %v", err)), nil
	}
	if err := a.store.Save(merged); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("save failed: %v", err)), nil
	}
	return mcp.NewToolResultText(render.Overview(merged)), nil
}

func deleteTool() mcp.Tool {
	return mcp.NewTool("delete_conference",
		mcp.WithDescription("Delete a stored conference mind."),
		mcp.WithString("conference", mcp.Required(), mcp.Description("Conference name or slug")),
	)
}

func (a *app) handleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := req.Params.Arguments.(map[string]any)
	conf, _ := args["conference"].(string)
	slug := resolve.Slugify(conf)
	if err := a.store.Delete(slug); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("Deleted " + slug), nil
}

// load fetches a conference by the "conference" argument, returning a tool
// error result when missing or unknown
func (a *app) load(args map[string]any) (*types.ConferenceMind, *mcp.CallToolResult) {
	conf, _ := args["conference"].(string)
	if conf == "" {
		return nil, mcp.NewToolResultError("conference is required")
	}
	m, err := a.store.Load(resolve.Slugify(conf))
	if errors.Is(err, store.ErrNotFound) {
		return nil, mcp.NewToolResultError(fmt.Sprintf("conference %q not found, use list_conferences", conf))
	}
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	return m, nil
}

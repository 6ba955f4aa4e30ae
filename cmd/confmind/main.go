package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"

	"github.com/vthunder/confmind/internal/config"
	"github.com/vthunder/confmind/internal/mind"
	"github.com/vthunder/confmind/internal/render"
	"github.com/vthunder/confmind/internal/resolve"
	"github.com/vthunder/confmind/internal/route"
	"github.com/vthunder/confmind/internal/store"
	"github.com/vthunder/confmind/internal/types"
)

func main() {
	// Load .env file if present (don't error if missing)
	godotenv.Load()

	statePath := os.Getenv("CONFMIND_STATE_PATH")
	if statePath == "" {
		statePath = "state"
	}

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	cfg, err := config.Load(os.Getenv("CONFMIND_CONFIG"))
	if err != nil {
		fatal(err)
	}

	st, err := store.Open(statePath)
	if err != nil {
		fatal(err)
	}
	defer st.Close()

	engine := mind.NewEngine(cfg)

	switch cmd := os.Args[1]; cmd {
	case "ingest":
		handleIngest(engine, st, os.Args[2:])
	case "append":
		handleAppend(engine, st, os.Args[2:])
	case "ask":
		handleAsk(engine, st, os.Args[2:])
	case "speakers":
		handleSpeakers(st, os.Args[2:])
	case "themes":
		handleThemes(st, os.Args[2:])
	case "tensions":
		handleTensions(st, os.Args[2:])
	case "list":
		handleList(st)
	case "export":
		handleExport(st, os.Args[2:])
	case "merge":
		handleMerge(engine, st, os.Args[2:])
	case "delete":
		handleDelete(st, os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`confmind - turn conference transcripts into queryable speaker minds

Usage: confmind <command> [options]

Commands:
  ingest [-n name] [-f file]...   Ingest transcript file(s) (or stdin) as one conference
  append -c conf [-f file]...     Add session(s) to an existing conference
  ask -c conf [-s speaker] <q>    Route a question to the most relevant speaker(s)
  speakers -c conf [-d]           List speakers, -d for full profiles
  themes -c conf                  Show cross-speaker themes
  tensions -c conf                Show detected disagreements
  list                            List stored conferences
  export -c conf [-o path]        Export a conference overview as markdown
  merge -o name <conf-a> <conf-b> Merge two conferences into a new one
  delete <conf>                   Delete a stored conference

Environment:
  CONFMIND_STATE_PATH  state directory (default: state)
  CONFMIND_CONFIG      optional YAML config path`)
}

func handleIngest(engine *mind.Engine, st *store.Store, args []string) {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	name := fs.String("n", "", "conference name")
	fs.StringVar(name, "name", "", "conference name")
	var files multiFlag
	fs.Var(&files, "f", "transcript file (repeatable)")
	fs.Var(&files, "file", "transcript file (repeatable)")
	fs.Parse(args)

	var sessions []mind.Session
	if len(files) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fatal(err)
		}
		sessions = append(sessions, mind.Session{Text: string(data), Title: "stdin"})
	}
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			fatal(err)
		}
		sessions = append(sessions, mind.Session{Text: string(data), Title: f})
	}

	m, err := engine.Ingest(*name, sessions)
	if err != nil {
		fatal(err)
	}
	if err := st.Save(m); err != nil {
		fatal(err)
	}
	fmt.Printf("Ingested %q (%s)\n", m.Name, m.Slug)
	fmt.Print(render.Overview(m))
}

func handleAppend(engine *mind.Engine, st *store.Store, args []string) {
	fs := flag.NewFlagSet("append", flag.ExitOnError)
	conf := fs.String("c", "", "conference name or slug")
	fs.StringVar(conf, "conference", "", "conference name or slug")
	var files multiFlag
	fs.Var(&files, "f", "transcript file (repeatable)")
	fs.Var(&files, "file", "transcript file (repeatable)")
	fs.Parse(args)

	m := mustLoad(st, *conf)

	var sessions []mind.Session
	if len(files) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fatal(err)
		}
		sessions = append(sessions, mind.Session{Text: string(data), Title: "stdin"})
	}
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			fatal(err)
		}
		sessions = append(sessions, mind.Session{Text: string(data), Title: f})
	}

	if err := engine.Append(m, sessions); err != nil {
		fatal(err)
	}
	if err := st.Save(m); err != nil {
		fatal(err)
	}
	fmt.Printf("Appended %d session(s) to %q\n", len(sessions), m.Name)
	fmt.Print(render.Overview(m))
}

func handleAsk(engine *mind.Engine, st *store.Store, args []string) {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	conf := fs.String("c", "", "conference name or slug")
	fs.StringVar(conf, "conference", "", "conference name or slug")
	speaker := fs.String("s", "", "target a specific speaker")
	fs.StringVar(speaker, "speaker", "", "target a specific speaker")
	fs.Parse(args)

	if fs.NArg() == 0 {
		fatal(errors.New("ask: question required"))
	}
	question := fs.Arg(0)

	m := mustLoad(st, *conf)
	results, err := engine.Route(m, question, route.Options{TargetSpeaker: *speaker})
	if errors.Is(err, route.ErrNoRelevantSpeaker) {
		fmt.Printf("No speaker in %q covers that question.\n", m.Name)
		return
	}
	if err != nil {
		fatal(err)
	}
	fmt.Print(render.Answer(results, m))
}

func handleSpeakers(st *store.Store, args []string) {
	fs := flag.NewFlagSet("speakers", flag.ExitOnError)
	conf := fs.String("c", "", "conference name or slug")
	fs.StringVar(conf, "conference", "", "conference name or slug")
	detail := fs.Bool("d", false, "show full profiles")
	fs.BoolVar(detail, "detail", false, "show full profiles")
	fs.Parse(args)

	m := mustLoad(st, *conf)
	for _, sp := range m.Speakers {
		if *detail {
			fmt.Print(render.Speaker(m, sp))
			fmt.Println()
			continue
		}
		fmt.Printf("- %s (%d segments)\n", sp.DisplayName, len(m.SegmentsOf(sp.ID)))
	}
}

func handleThemes(st *store.Store, args []string) {
	m := mustLoad(st, confArg(args, "themes"))
	if len(m.Themes) == 0 {
		fmt.Println("No cross-speaker themes detected.")
		return
	}
	for _, th := range m.Themes {
		fmt.Printf("- %s: %d speakers, %d passages\n", th.Label, len(th.Speakers), len(th.Positions))
	}
}

func handleTensions(st *store.Store, args []string) {
	m := mustLoad(st, confArg(args, "tensions"))
	if len(m.Tensions) == 0 {
		fmt.Println("No tensions detected.")
		return
	}
	for _, t := range m.Tensions {
		fmt.Printf("- %s vs %s on %q (%d contrast signals)\n", t.SpeakerA, t.SpeakerB, t.Topic, t.Markers)
	}
}

func handleList(st *store.Store) {
	metas, err := st.List()
	if err != nil {
		fatal(err)
	}
	if len(metas) == 0 {
		fmt.Println("No conferences stored yet. Use 'confmind ingest' first.")
		return
	}
	for _, m := range metas {
		fmt.Printf("- %s (%s): %d speakers, %d segments, created %s\n",
			m.Name, m.Slug, m.SpeakerCount, m.SegmentCount, m.Created.Format("2006-01-02"))
	}
}

func handleExport(st *store.Store, args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	conf := fs.String("c", "", "conference name or slug")
	fs.StringVar(conf, "conference", "", "conference name or slug")
	out := fs.String("o", "", "output path (default stdout)")
	fs.StringVar(out, "output", "", "output path (default stdout)")
	fs.Parse(args)

	m := mustLoad(st, *conf)
	md := render.Overview(m)
	if *out == "" {
		fmt.Print(md)
		return
	}
	if err := os.WriteFile(*out, []byte(md), 0644); err != nil {
		fatal(err)
	}
	fmt.Printf("Exported to %s\n", *out)
}

func handleMerge(engine *mind.Engine, st *store.Store, args []string) {
	fs := flag.NewFlagSet("merge", flag.ExitOnError)
	name := fs.String("o", "", "name for the merged conference")
	fs.StringVar(name, "out", "", "name for the merged conference")
	fs.Parse(args)

	if fs.NArg() < 2 {
		fatal(errors.New("merge: two conference names required"))
	}
	a := mustLoad(st, fs.Arg(0))
	b := mustLoad(st, fs.Arg(1))

	merged, err := engine.Merge(*name, a, b)
	if err != nil {
		fatal(err)
	}
	if err := st.Save(merged); err != nil {
		fatal(err)
	}
	fmt.Printf("Merged into %q (%s)\n", merged.Name, merged.Slug)
	fmt.Print(render.Overview(merged))
}

func handleDelete(st *store.Store, args []string) {
	if len(args) == 0 {
		fatal(errors.New("delete: conference name required"))
	}
	slug := resolve.Slugify(args[0])
	if err := st.Delete(slug); err != nil {
		fatal(err)
	}
	fmt.Printf("Deleted %s\n", slug)
}

func confArg(args []string, cmd string) string {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	conf := fs.String("c", "", "conference name or slug")
	fs.StringVar(conf, "conference", "", "conference name or slug")
	fs.Parse(args)
	return *conf
}

func mustLoad(st *store.Store, name string) *types.ConferenceMind {
	if name == "" {
		fatal(errors.New("conference name required (-c)"))
	}
	m, err := st.Load(resolve.Slugify(name))
	if errors.Is(err, store.ErrNotFound) {
		fatal(fmt.Errorf("conference %q not found, use 'confmind list'", name))
	}
	if err != nil {
		fatal(err)
	}
	return m
}

// multiFlag collects repeated -f flags
type multiFlag []string

func (m *multiFlag) String() string     { return fmt.Sprint(*m) }
func (m *multiFlag) Set(v string) error { *m = append(*m, v); return nil }

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}

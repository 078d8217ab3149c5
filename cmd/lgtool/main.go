package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/benjaminschreck/go-lg/pkg/expression"
	"github.com/benjaminschreck/go-lg/pkg/lg"
)

const (
	appName     = "lgtool"
	version     = "0.1.0"
	historyFile = ".lgtool_history"
	prompt      = "lg> "
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd := os.Args[1]
	switch cmd {
	case "check":
		os.Exit(cmdCheck(os.Args[2:]))
	case "eval":
		os.Exit(cmdEval(os.Args[2:]))
	case "inline":
		os.Exit(cmdInline(os.Args[2:]))
	case "analyze":
		os.Exit(cmdAnalyze(os.Args[2:]))
	case "expr":
		os.Exit(cmdExpr(os.Args[2:]))
	case "repl":
		os.Exit(cmdRepl(os.Args[2:]))
	case "version":
		fmt.Printf("%s version %s\n", appName, version)
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", appName, cmd)
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Printf(`%s %s - language generation templates

Usage:
  %s check [flags] <file.lg ...>                   Check files and print diagnostics
  %s eval [flags] -template <name> <file.lg ...>   Evaluate a template
  %s inline [flags] <text> [file.lg ...]           Evaluate inline text
  %s analyze -template <name> <file.lg ...>        List variables and references
  %s expr [flags] <expression>                     Evaluate an expression
  %s repl [flags] [file.lg ...]                    Interactive evaluation
  %s version                                       Print the version

Common flags:
  -config <file.yaml>   configuration file
  -scope <file>         JSON or YAML scope
  -strict               treat warnings as errors
  -seed <n>             fix the choice among variations
`, appName, version, appName, appName, appName, appName, appName, appName, appName)
}

type options struct {
	config   string
	scope    string
	template string
	strict   bool
	seed     int64
}

func newFlagSet(name string, o *options) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&o.config, "config", "", "YAML configuration file")
	fs.StringVar(&o.scope, "scope", "", "JSON or YAML file with the evaluation scope")
	fs.StringVar(&o.template, "template", "", "template name")
	fs.BoolVar(&o.strict, "strict", false, "treat warnings as errors")
	fs.Int64Var(&o.seed, "seed", 0, "random seed for variation choice")
	return fs
}

func (o *options) loadConfig() (*lg.Config, error) {
	config := lg.GetGlobalConfig()
	if o.config != "" {
		loaded, err := lg.LoadConfigFile(o.config)
		if err != nil {
			return nil, err
		}
		config = loaded
	}
	if o.strict {
		config.StrictMode = true
	}
	if o.seed != 0 {
		config.RandomSeed = o.seed
	}
	lg.SetGlobalConfig(config)
	return config, nil
}

func (o *options) engine(files []string) (*lg.Engine, error) {
	config, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	engine := lg.New(lg.WithConfig(config))
	if len(files) > 0 {
		if err := engine.AddFiles(files...); err != nil {
			return nil, err
		}
	}
	return engine, nil
}

func (o *options) loadScope() (interface{}, error) {
	if o.scope == "" {
		return map[string]interface{}{}, nil
	}
	return readScope(o.scope)
}

func readScope(path string) (interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scope %s: %w", path, err)
	}
	scope, err := expression.ParseStructured(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse scope %s: %w", path, err)
	}
	return scope, nil
}

func fail(err error) int {
	fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
	return 1
}

func cmdCheck(args []string) int {
	var o options
	fs := newFlagSet("check", &o)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "usage: %s check [flags] <file.lg ...>\n", appName)
		return 2
	}

	engine, err := o.engine(fs.Args())
	if err != nil {
		return fail(err)
	}
	for _, d := range engine.Diagnostics() {
		fmt.Println(d)
	}
	fmt.Printf("%d templates OK\n", len(engine.Templates()))
	return 0
}

func cmdEval(args []string) int {
	var o options
	fs := newFlagSet("eval", &o)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if o.template == "" || fs.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "usage: %s eval [flags] -template <name> <file.lg ...>\n", appName)
		return 2
	}

	engine, err := o.engine(fs.Args())
	if err != nil {
		return fail(err)
	}
	scope, err := o.loadScope()
	if err != nil {
		return fail(err)
	}
	out, err := engine.EvaluateTemplate(o.template, scope, nil)
	if err != nil {
		return fail(err)
	}
	fmt.Println(out)
	return 0
}

func cmdInline(args []string) int {
	var o options
	fs := newFlagSet("inline", &o)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "usage: %s inline [flags] <text> [file.lg ...]\n", appName)
		return 2
	}

	engine, err := o.engine(fs.Args()[1:])
	if err != nil {
		return fail(err)
	}
	scope, err := o.loadScope()
	if err != nil {
		return fail(err)
	}
	out, err := engine.Evaluate(fs.Arg(0), scope, nil)
	if err != nil {
		return fail(err)
	}
	fmt.Println(out)
	return 0
}

func cmdAnalyze(args []string) int {
	var o options
	fs := newFlagSet("analyze", &o)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if o.template == "" || fs.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "usage: %s analyze -template <name> <file.lg ...>\n", appName)
		return 2
	}

	engine, err := o.engine(fs.Args())
	if err != nil {
		return fail(err)
	}
	result, err := engine.AnalyzeTemplate(o.template)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("variables: %s\n", strings.Join(result.Variables, ", "))
	fmt.Printf("templates: %s\n", strings.Join(result.TemplateReferences, ", "))
	return 0
}

func cmdExpr(args []string) int {
	var o options
	fs := newFlagSet("expr", &o)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s expr [flags] <expression>\n", appName)
		return 2
	}

	scope, err := o.loadScope()
	if err != nil {
		return fail(err)
	}
	value, err := expression.Evaluate(fs.Arg(0), scope)
	if err != nil {
		return fail(err)
	}
	text, err := expression.ToJSON(value)
	if err != nil {
		return fail(err)
	}
	fmt.Println(text)
	return 0
}

const replHelp = `REPL commands:
  :templates         list loaded templates
  :t <name>          evaluate a template
  :a <name>          analyze a template
  :scope <file>      load the scope from a JSON or YAML file
  :load <file.lg>    load more templates
  :quit              exit
Any other line is evaluated as inline template text.
`

func cmdRepl(args []string) int {
	var o options
	fs := newFlagSet("repl", &o)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	engine, err := o.engine(fs.Args())
	if err != nil {
		return fail(err)
	}
	scope, err := o.loadScope()
	if err != nil {
		return fail(err)
	}

	fmt.Printf("%s %s REPL. Type :help for commands, :quit or Ctrl+D to exit.\n", appName, version)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	for {
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			fmt.Println()
			return 0
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			return fail(err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		ln.AppendHistory(line)

		if !strings.HasPrefix(line, ":") {
			printResult(engine.Evaluate(line, scope, nil))
			continue
		}

		command, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)
		switch command {
		case ":quit", ":q":
			return 0
		case ":help":
			fmt.Print(replHelp)
		case ":templates":
			for _, t := range engine.Templates() {
				fmt.Printf("%s(%s)  %s\n", t.Name, strings.Join(t.Parameters, ", "), t.Source)
			}
		case ":t":
			printResult(engine.EvaluateTemplate(arg, scope, nil))
		case ":a":
			result, err := engine.AnalyzeTemplate(arg)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				continue
			}
			fmt.Printf("variables: %s\ntemplates: %s\n", strings.Join(result.Variables, ", "), strings.Join(result.TemplateReferences, ", "))
		case ":scope":
			loaded, err := readScope(arg)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				continue
			}
			scope = loaded
		case ":load":
			if err := engine.AddFiles(arg); err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
		default:
			fmt.Printf("unknown command %s. Type :help for commands.\n", command)
		}
	}
}

func printResult(out string, err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	fmt.Println(out)
}

// Package lg loads, checks and evaluates language generation templates
// written in .lg files.
//
// # Quick Start
//
//	engine, err := lg.FromFiles("greetings.lg")
//	if err != nil {
//	    log.Fatal(err) // *lg.DiagnosticError lists every problem found
//	}
//
//	text, err := engine.EvaluateTemplate("greet", map[string]interface{}{
//	    "name": "Ada",
//	}, nil)
//
// # File Format
//
// A file is a list of templates. A line starting with '#' names a template
// and its parameters, the '-' lines below it form its body, and lines
// starting with '>' are comments:
//
//	> greetings.lg
//	# greet(name)
//	- Hello @{name}!
//	- Hi @{name}!
//
//	# weather(temp)
//	- IF: @{temp > 25}
//	    - It is hot.
//	- ELSE:
//	    - It is @{temp} degrees.
//
//	# color(code)
//	- SWITCH: @{code}
//	- CASE: @{'r'}
//	    - red
//	- DEFAULT:
//	    - unknown
//
// A body with several variations picks one at random; Config.RandomSeed
// makes the choice repeatable. Within a variation:
//
//	@{expr}           - expression, evaluated and written out
//	[name]            - the named template, evaluated with the caller scope
//	[name(a, b)]      - the named template with its parameters bound
//	\@ \[ \n ...      - escaped characters
//	```...```         - multi-line text; only @{expr} is substituted inside
//
// Templates can also be called as functions inside expressions, as in
// @{greet(user.name)}.
//
// # Checking
//
// Every load runs a static check over the full template set: duplicate
// names, malformed condition and switch blocks, invalid escapes, unknown
// template references, argument count mismatches and invalid expressions.
// Errors abort the load and leave the engine unchanged. Warnings are logged
// and kept in Engine.Diagnostics, or abort the load too when
// Config.StrictMode is set.
//
// # Analysis
//
// Engine.AnalyzeTemplate lists the scope variables and templates a template
// depends on, and fails with a *CycleError when templates reference each
// other in a loop.
//
// # Configuration
//
// Defaults come from environment variables (LG_CACHE_MAX_SIZE, LG_CACHE_TTL,
// LG_LOG_LEVEL, LG_MAX_RENDER_DEPTH, LG_STRICT_MODE, LG_RANDOM_SEED) or from
// a YAML file read with LoadConfigFile.
package lg

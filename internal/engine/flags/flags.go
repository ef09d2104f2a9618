// Package flags expands a target's declared flags, link flags and defines into
// compiler and linker arguments.
package flags

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	"go.trai.ch/zen/internal/core/domain"
	"go.trai.ch/zen/internal/core/ports"
	"go.trai.ch/zerr"
)

const defaultStdPattern = "-std={}"

// Resolved holds the expanded arguments of a target.
type Resolved struct {
	// Compile is passed to every compile and link invocation.
	Compile []string
	// Link is passed to the link invocation only.
	Link []string
}

type commandResult struct {
	stdout string
	stderr string
	err    error
}

// Resolver expands flags for the targets of one run. Command defines run once per
// command line and their output is reused by every target of the run.
type Resolver struct {
	executor ports.Executor

	mu       sync.Mutex
	commands map[string]*commandResult
}

// NewResolver creates a Resolver that runs command defines through executor.
func NewResolver(executor ports.Executor) *Resolver {
	return &Resolver{
		executor: executor,
		commands: make(map[string]*commandResult),
	}
}

// Resolve expands the flags of target for lang. Every error is collected.
func (r *Resolver) Resolve(
	ctx context.Context,
	project *domain.Project,
	target *domain.Target,
	lang domain.LanguageConfig,
	buildRoot string,
) (Resolved, error) {
	var errs []error
	var out Resolved

	if lang.Standard != "" {
		pattern := lang.StdPattern
		if pattern == "" {
			pattern = defaultStdPattern
		}
		out.Compile = append(out.Compile, domain.Expand(pattern, lang.Standard))
	}
	out.Compile = append(out.Compile, lang.DefaultCompileFlags...)

	inherited := false
	for _, f := range target.Flags {
		switch f.Kind {
		case domain.FlagLiteral:
			out.Compile = append(out.Compile, f.Value)
		case domain.FlagIncludeDir:
			out.Compile = append(out.Compile, domain.Expand(lang.IncludePattern, f.Value))
		case domain.FlagInherit:
			if inherited {
				errs = append(errs, zerr.With(domain.ErrAlreadyInherited, "target", target.Name))
				continue
			}
			inherited = true

			global, err := r.global(ctx, project, lang)
			if err != nil {
				errs = append(errs, err)
			}
			out.Compile = append(out.Compile, global...)
		}
	}

	defines, err := r.defines(ctx, project, target.Defines, lang)
	if err != nil {
		errs = append(errs, zerr.With(err, "target", target.Name))
	}
	out.Compile = append(out.Compile, defines...)

	for _, lf := range target.LinkFlags {
		switch lf.Kind {
		case domain.LinkLiteral:
			out.Link = append(out.Link, lf.Value)
		case domain.LinkLib:
			if err := checkLinkTarget(project, target.Name, lf.Value); err != nil {
				errs = append(errs, err)
				continue
			}
			out.Link = append(out.Link,
				domain.Expand(lang.LinkDirPattern, domain.TargetBuildDir(buildRoot, lf.Value)),
				domain.Expand(lang.LinkPattern, lf.Value),
			)
		}
	}
	out.Link = append(out.Link, lang.DefaultLinkFlags...)

	if len(errs) > 0 {
		return Resolved{}, errors.Join(errs...)
	}
	return out, nil
}

func (r *Resolver) global(ctx context.Context, project *domain.Project, lang domain.LanguageConfig) ([]string, error) {
	var errs []error
	var out []string

	for _, f := range project.Global.Flags {
		switch f.Kind {
		case domain.FlagLiteral:
			out = append(out, f.Value)
		case domain.FlagIncludeDir:
			out = append(out, domain.Expand(lang.IncludePattern, f.Value))
		case domain.FlagInherit:
			errs = append(errs, domain.ErrInheritInGlobal)
		}
	}

	defines, err := r.defines(ctx, project, project.Global.Defines, lang)
	if err != nil {
		errs = append(errs, zerr.With(err, "scope", "global"))
	}
	out = append(out, defines...)

	return out, errors.Join(errs...)
}

func (r *Resolver) defines(
	ctx context.Context,
	project *domain.Project,
	defines []domain.Define,
	lang domain.LanguageConfig,
) ([]string, error) {
	var errs []error
	out := make([]string, 0, len(defines))

	for _, d := range defines {
		var value string
		var err error
		switch d.Kind {
		case domain.DefineLiteral:
			value, err = Coerce(d)
		case domain.DefineCommand:
			value, err = r.commandValue(ctx, project, d)
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, domain.ExpandDefine(lang.DefinePattern, d.Symbol, value))
	}

	return out, errors.Join(errs...)
}

// Coerce renders a literal define value according to its declared type.
func Coerce(d domain.Define) (string, error) {
	switch d.AsType {
	case domain.ValueInt:
		v := strings.TrimSpace(d.Value)
		if _, err := strconv.ParseInt(v, 0, 64); err != nil {
			return "", coercionError(d)
		}
		return v, nil
	case domain.ValueBool:
		switch strings.ToLower(strings.TrimSpace(d.Value)) {
		case "1", "t", "true", "yes", "on":
			return "1", nil
		case "0", "f", "false", "no", "off", "":
			return "0", nil
		default:
			return "", coercionError(d)
		}
	default:
		return d.Value, nil
	}
}

func coercionError(d domain.Define) error {
	return zerr.With(zerr.With(zerr.With(domain.ErrDefineCoercion,
		"symbol", d.Symbol), "value", d.Value), "as_type", string(d.AsType))
}

func (r *Resolver) commandValue(ctx context.Context, project *domain.Project, d domain.Define) (string, error) {
	res := r.run(ctx, project, d.Command)

	value := res.stdout
	switch {
	case res.err != nil && !d.IgnoreFail:
		err := zerr.Wrap(res.err, domain.ErrDefineCommandFailed.Error())
		err = zerr.With(err, "symbol", d.Symbol)
		err = zerr.With(err, "define_command", d.Command)
		if stderr := strings.TrimSpace(res.stderr); stderr != "" {
			err = zerr.With(err, "stderr", stderr)
		}
		return "", err
	case d.UseStderr == domain.StderrYes:
		value = res.stderr
	case d.UseStderr == domain.StderrOnFail && res.err != nil:
		value = res.stderr
	}

	if d.StripWhitespace {
		value = strings.TrimSpace(value)
	}
	return value, nil
}

func (r *Resolver) run(ctx context.Context, project *domain.Project, command string) *commandResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	if res, ok := r.commands[command]; ok {
		return res
	}

	var stdout, stderr bytes.Buffer
	err := r.executor.Execute(ctx, &domain.Command{
		Name: "sh",
		Args: []string{"-c", command},
		Dir:  project.Dir,
	}, &stdout, &stderr)

	res := &commandResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
	r.commands[command] = res
	return res
}

func checkLinkTarget(project *domain.Project, owner, name string) error {
	linked, ok := project.Target(name)
	if !ok {
		return zerr.With(zerr.With(domain.ErrUnknownLinkTarget, "target", owner), "link_target", name)
	}
	if linked.Type != domain.TargetLibrary {
		return zerr.With(zerr.With(domain.ErrLinkTargetNotLibrary, "target", owner), "link_target", name)
	}
	return nil
}

// Check validates the flag rules of every target without running any command:
// inherit is used at most once per list and never in the global list, lib link
// flags name library targets, and literal defines coerce to their type.
func Check(project *domain.Project) error {
	var errs []error

	for _, f := range project.Global.Flags {
		if f.Kind == domain.FlagInherit {
			errs = append(errs, domain.ErrInheritInGlobal)
			break
		}
	}
	errs = append(errs, checkDefines(project.Global.Defines, "")...)

	for _, t := range project.Targets {
		inherits := 0
		for _, f := range t.Flags {
			if f.Kind == domain.FlagInherit {
				inherits++
			}
		}
		if inherits > 1 {
			errs = append(errs, zerr.With(domain.ErrAlreadyInherited, "target", t.Name))
		}

		for _, lf := range t.LinkFlags {
			if lf.Kind != domain.LinkLib {
				continue
			}
			if err := checkLinkTarget(project, t.Name, lf.Value); err != nil {
				errs = append(errs, err)
			}
		}

		errs = append(errs, checkDefines(t.Defines, t.Name)...)
	}

	return errors.Join(errs...)
}

func checkDefines(defines []domain.Define, target string) []error {
	var errs []error
	for _, d := range defines {
		if d.Kind != domain.DefineLiteral {
			continue
		}
		if _, err := Coerce(d); err != nil {
			if target != "" {
				err = zerr.With(err, "target", target)
			}
			errs = append(errs, err)
		}
	}
	return errs
}

package graph

import (
	"context"
	"fmt"
	"maps"
	"time"

	eventbus "github.com/hanpama/bookgraph/internal/eventbus"
	events "github.com/hanpama/bookgraph/internal/events"
	executor "github.com/hanpama/bookgraph/internal/executor"
	introspection "github.com/hanpama/bookgraph/internal/introspection"
	language "github.com/hanpama/bookgraph/internal/language"
	store "github.com/hanpama/bookgraph/internal/store"
)

type Options struct {
	// StrictAuthorRefs rejects addBook calls whose authorId names no author.
	StrictAuthorRefs bool

	// Introspection answers __schema and __type queries.
	Introspection bool
}

type Option func(*Options)

func WithStrictAuthorRefs(strict bool) Option {
	return func(o *Options) { o.StrictAuthorRefs = strict }
}
func WithIntrospection(enable bool) Option { return func(o *Options) { o.Introspection = enable } }

// Engine validates and executes GraphQL requests against one store.
type Engine struct {
	registry   *Registry
	exec       *executor.Executor
	validation *language.ValidationSchema
	opt        Options
}

// NewEngine binds reg to st. Unless overridden, author references are strict
// and introspection is enabled.
func NewEngine(reg *Registry, st store.Store, opts ...Option) (*Engine, error) {
	op := Options{StrictAuthorRefs: true, Introspection: true}
	for _, f := range opts {
		f(&op)
	}

	validation, err := language.LoadSchema("bookgraph.graphql", reg.SDL())
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}

	rt := NewRuntime(reg, st, NewMutator(st, op.StrictAuthorRefs))
	var (
		base executor.Runtime = rt
		sch                   = reg.Schema()
	)
	if op.Introspection {
		w := introspection.Wrap(rt, sch)
		base, sch = w.Runtime, w.Schema
	}
	return &Engine{
		registry:   reg,
		exec:       executor.NewExecutor(base, sch),
		validation: validation,
		opt:        op,
	}, nil
}

func (e *Engine) Registry() *Registry { return e.registry }

// Execute parses and validates query, then runs the selected operation.
// Syntax and validation failures produce errors and no data.
func (e *Engine) Execute(ctx context.Context, query, operationName string, variables map[string]any) *executor.ExecutionResult {
	start := time.Now()
	doc, errs := language.LoadQuery(e.validation, query)
	if len(errs) > 0 {
		res := &executor.ExecutionResult{Errors: requestErrors(errs)}
		e.finish(ctx, query, operationName, "", res, start)
		return res
	}

	opType := ""
	if op := doc.Operations.ForName(operationName); op != nil {
		opType = string(op.Operation)
	}
	eventbus.Publish(ctx, events.GraphQLStart{Query: query, OperationName: operationName, OperationType: opType})

	var res *executor.ExecutionResult
	if !e.opt.Introspection && usesIntrospection(doc) {
		res = &executor.ExecutionResult{Errors: []executor.GraphQLError{{
			Message:    "introspection is disabled",
			Extensions: map[string]any{"code": CodeValidationFailed},
		}}}
	} else {
		res = e.exec.ExecuteRequest(ctx, doc, operationName, variables, nil)
	}
	e.finish(ctx, query, operationName, opType, res, start)
	return res
}

func (e *Engine) finish(ctx context.Context, query, operationName, opType string, res *executor.ExecutionResult, start time.Time) {
	errs := make([]error, len(res.Errors))
	for i := range res.Errors {
		errs[i] = res.Errors[i]
	}
	eventbus.Publish(ctx, events.GraphQLFinish{
		Query:         query,
		OperationName: operationName,
		OperationType: opType,
		Errors:        errs,
		Duration:      time.Since(start),
	})
}

// requestErrors converts parser and validator errors. Errors without a
// validation rule come from the parser.
func requestErrors(errs language.ErrorList) []executor.GraphQLError {
	out := make([]executor.GraphQLError, len(errs))
	for i, err := range errs {
		ge := executor.GraphQLError{Message: err.Message}
		for _, loc := range err.Locations {
			ge.Locations = append(ge.Locations, executor.Location{Line: loc.Line, Column: loc.Column})
		}
		ge.Extensions = maps.Clone(err.Extensions)
		if ge.Extensions == nil {
			ge.Extensions = make(map[string]any)
		}
		if err.Rule != "" {
			ge.Extensions["code"] = CodeValidationFailed
		} else {
			ge.Extensions["code"] = CodeParseFailed
		}
		out[i] = ge
	}
	return out
}

func usesIntrospection(doc *language.QueryDocument) bool {
	var walk func(language.SelectionSet) bool
	walk = func(set language.SelectionSet) bool {
		for _, sel := range set {
			switch s := sel.(type) {
			case *language.Field:
				if s.Name == "__schema" || s.Name == "__type" || walk(s.SelectionSet) {
					return true
				}
			case *language.InlineFragment:
				if walk(s.SelectionSet) {
					return true
				}
			}
		}
		return false
	}
	for _, op := range doc.Operations {
		if walk(op.SelectionSet) {
			return true
		}
	}
	for _, f := range doc.Fragments {
		if walk(f.SelectionSet) {
			return true
		}
	}
	return false
}

// Package codegen runs generation passes: decode a workspace, validate
// its structure, walk it through a target and assemble the source text.
// Every pass owns a fresh emit.Session; passes share nothing and can run
// in parallel.
package codegen

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"blockgen/internal/block"
	"blockgen/internal/cache"
	"blockgen/internal/diag"
	"blockgen/internal/emit"
	"blockgen/internal/observ"
	"blockgen/internal/platform"
	"blockgen/internal/trace"
	"blockgen/internal/version"
)

// Request configures one generation pass.
type Request struct {
	// Name identifies the workspace in progress events and traces.
	Name   string
	Source []byte
	Target platform.Target
	Board  platform.Board
	// Banner is the first header comment; empty leaves the header out.
	Banner    string
	BuildTime time.Time
	// MaxDiagnostics bounds the diagnostics kept; 0 means the default.
	MaxDiagnostics int
	// Cache is consulted before and filled after the pass when non-nil.
	Cache    *cache.Cache
	Progress ProgressSink
}

// Result is the outcome of a pass. Code is empty when the pass failed.
type Result struct {
	Name         string
	Target       platform.Target
	Board        string
	Code         string
	Warnings     []string
	Dependencies []string
	Diagnostics  []diag.Diagnostic
	Timings      observ.Report
	Cached       bool
	// Err is set when the workspace could not be generated at all.
	Err error
}

// HasErrors reports whether any diagnostic is an error.
func (r Result) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.Severity >= diag.SevError {
			return true
		}
	}
	return r.Err != nil
}

// Generate runs one pass. A returned error is also stored in Result.Err
// together with a diagnostic describing it.
func Generate(ctx context.Context, req *Request) (res Result, err error) {
	if req == nil {
		return Result{}, errors.New("missing generation request")
	}
	res = Result{Name: req.Name, Target: req.Target, Board: req.Board.ID}
	tracer := trace.FromContext(ctx)
	span := trace.BeginFile(tracer, "generate", req.Name, trace.CurrentSpan(ctx).SpanID).
		WithExtra("target", string(req.Target)).
		WithExtra("board", req.Board.ID)
	timer := observ.NewTimer()
	detail := "ok"
	defer func() {
		res.Timings = timer.Report()
		span.End(detail)
	}()

	fail := func(stage Stage, d diag.Diagnostic, err error) (Result, error) {
		detail = "error"
		res.Diagnostics = append(res.Diagnostics, d)
		res.Err = err
		emitEvent(req.Progress, req.Name, stage, StatusError, err, 0)
		return res, err
	}

	tgt, err := LookupTarget(req.Target)
	if err != nil {
		return fail(StageDecode, diag.NewError(diag.PrjTargetBoard, "", err.Error()), err)
	}
	if !req.Board.Supports(req.Target) {
		err = fmt.Errorf("%w: %s has no %s output", ErrUnsupportedBoard, req.Board.ID, req.Target)
		return fail(StageDecode, diag.NewError(diag.PrjTargetBoard, "", err.Error()), err)
	}

	var key cache.Digest
	if req.Cache != nil {
		idx := timer.Begin("cache")
		key, err = cache.Key(req.Source, req.Target, req.Board, version.Version)
		if err == nil {
			var p cache.Payload
			var ok bool
			if ok, err = req.Cache.Get(key, &p); ok {
				timer.End(idx, "hit")
				res.Code = p.Code
				res.Warnings = p.Warnings
				res.Dependencies = p.Dependencies
				res.Diagnostics = p.Diagnostics
				res.Cached = true
				detail = "cached"
				trace.Point(tracer, trace.ScopeFile, "cache_hit", key.String(), span.Context())
				emitEvent(req.Progress, req.Name, StageCache, StatusDone, nil, 0)
				return res, nil
			}
		}
		timer.End(idx, "miss")
		if err != nil {
			// a broken entry is regenerated and overwritten
			res.Diagnostics = append(res.Diagnostics, diag.New(diag.SevInfo, diag.PrjInfo, "", "cache: "+err.Error()))
		}
	}

	ws, err := runStage(req, timer, StageDecode, func() (*block.Workspace, error) {
		return block.Decode(req.Source)
	})
	if err != nil {
		return fail(StageDecode, structuralDiagnostic(err), err)
	}
	if _, err := runStage(req, timer, StageValidate, func() (struct{}, error) {
		return struct{}{}, block.Validate(ws)
	}); err != nil {
		return fail(StageValidate, structuralDiagnostic(err), err)
	}

	s := emit.NewSession(emit.Options{
		Board:          req.Board,
		Workspace:      ws,
		Banner:         req.Banner,
		BuildTime:      req.BuildTime,
		MaxDiagnostics: req.MaxDiagnostics,
	})
	passCtx := trace.WithSpanContext(ctx, span.Context())
	main, _ := runStage(req, timer, StageWalk, func() (string, error) {
		return emit.NewPass(passCtx, tgt, s).Run(ws), nil
	})
	if err := ctx.Err(); err != nil {
		return fail(StageWalk, diag.NewError(diag.GenInfo, "", "generation cancelled"), err)
	}
	res.Code, _ = runStage(req, timer, StageFinish, func() (string, error) {
		return emit.Finish(tgt, s, main), nil
	})

	res.Warnings = s.Warnings()
	res.Dependencies = s.Dependencies()
	res.Diagnostics = append(res.Diagnostics, s.Diagnostics().Items()...)
	span.WithExtra("warnings", strconv.Itoa(len(res.Warnings)))

	if req.Cache != nil {
		err = req.Cache.Put(key, &cache.Payload{
			Target:       string(req.Target),
			Board:        req.Board.ID,
			Code:         res.Code,
			Warnings:     res.Warnings,
			Dependencies: res.Dependencies,
			Diagnostics:  s.Diagnostics().Items(),
			Created:      time.Now().UTC(),
		})
		if err != nil {
			res.Diagnostics = append(res.Diagnostics, diag.New(diag.SevInfo, diag.PrjInfo, "", "cache: "+err.Error()))
		}
	}
	return res, nil
}

// runStage times fn as one phase and reports it to the progress sink.
func runStage[T any](req *Request, timer *observ.Timer, stage Stage, fn func() (T, error)) (T, error) {
	emitEvent(req.Progress, req.Name, stage, StatusWorking, nil, 0)
	start := time.Now()
	idx := timer.Begin(string(stage))
	v, err := fn()
	timer.End(idx, "")
	if err == nil {
		emitEvent(req.Progress, req.Name, stage, StatusDone, nil, time.Since(start))
	}
	return v, err
}

func structuralDiagnostic(err error) diag.Diagnostic {
	var se *block.StructuralError
	if errors.As(err, &se) {
		return se.Diagnostic()
	}
	return diag.NewError(diag.StrMalformed, "", err.Error())
}

package driver

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"svir/internal/design"
	"svir/internal/diag"
	"svir/internal/hir"
	"svir/internal/mir"
	"svir/internal/observ"
	"svir/internal/query"
	"svir/internal/source"
	"svir/internal/trace"
)

// LowerOptions configures LowerDesign.
type LowerOptions struct {
	Jobs           int // 0 - GOMAXPROCS
	MaxDiagnostics int
	Cache          *DiskCache // nil disables the cache
	Tracer         trace.Tracer
	Progress       ProgressSink
	PhaseObserver  PhaseObserver
	EmitTimings    bool
}

// Output is one root lowered under one environment.
type Output struct {
	Root int // index in the [[lower]] list
	Text string
	Env  string
	Kind design.Kind

	// Деревья есть только у свежего понижения, не у записи из кэша.
	Lvalue *mir.Lvalue
	Rvalue *mir.Rvalue

	Snapshot *mir.Snapshot
	Dump     string
	Failed   bool // lowered to an Error node
}

// Label names the output in progress events and fault messages.
func (o *Output) Label() string {
	return fmt.Sprintf("%s [%s]", o.Text, o.Env)
}

// Result is the outcome of LowerDesign.
type Result struct {
	Path     string
	Files    *source.FileSet
	Bag      *diag.Bag
	Design   *design.Design // nil when the description could not be decoded
	Outputs  []Output       // ordered by root, then by environment
	Cached   bool
	CacheErr error // cache failures never fail the run
	Timing   *observ.Report
	Stats    []query.Stats
}

type task struct {
	root design.Root
	env  design.Env
}

// LowerDesign loads the description at path and lowers every root under
// each of its environments. Problems in the description are reported to
// Result.Bag and do not make the call fail. The returned error is a read
// failure, a cancelled ctx, or a broken invariant; the last one wraps a
// *mir.InternalFault and comes with the partial result.
func LowerDesign(ctx context.Context, path string, opts LowerOptions) (*Result, error) {
	tracer := opts.Tracer
	if tracer == nil {
		tracer = trace.Nop
	}
	top := trace.Begin(tracer, trace.ScopeDriver, "lower_design", 0).WithExtra("path", path)
	defer top.End("")

	ph := phases{timer: observ.NewTimer(), observer: opts.PhaseObserver}
	bag := diag.NewBag(opts.MaxDiagnostics)
	res := &Result{Path: path, Files: source.NewFileSet(), Bag: bag}

	idx := ph.begin("load")
	emit(opts.Progress, Event{Stage: StageLoad, Status: StatusWorking})
	d, err := design.Load(res.Files, path, diag.BagReporter{Bag: bag})
	ph.end(idx, "")
	if err != nil {
		emit(opts.Progress, Event{Stage: StageLoad, Status: StatusError, Err: err})
		if !bag.HasErrors() {
			return nil, err
		}
		res.finish(ph, opts)
		return res, nil
	}
	emit(opts.Progress, Event{Stage: StageLoad, Status: StatusDone})
	res.Design = d

	// в кэш попадают только дизайны без диагностик
	cacheable := opts.Cache != nil && bag.Len() == 0
	if cacheable {
		idx = ph.begin("cache")
		payload, ok, err := opts.Cache.Get(d.Digest)
		ph.end(idx, fmt.Sprintf("hit=%t", ok))
		res.CacheErr = err
		if ok {
			res.Outputs = cacheToOutputs(payload)
			res.Cached = true
			res.finish(ph, opts)
			return res, nil
		}
	}

	idx = ph.begin("lower")
	low := mir.NewLowerer(d.DB, nil, tracer)
	err = lowerAll(ctx, low, d, res, opts)
	ph.end(idx, fmt.Sprintf("%d outputs", len(res.Outputs)))
	res.Stats = append(d.DB.Tables(), low.Stats()...)
	if err != nil {
		res.finish(ph, opts)
		return res, err
	}

	if cacheable && bag.Len() == 0 {
		if err := opts.Cache.Put(d.Digest, outputsToCache(d.Name, path, res.Outputs)); err != nil {
			res.CacheErr = err
		}
	}
	res.finish(ph, opts)
	return res, nil
}

func lowerAll(ctx context.Context, low *mir.Lowerer, d *design.Design, res *Result, opts LowerOptions) error {
	var tasks []task
	for _, r := range d.Roots {
		if r.Expr == hir.NoNodeID {
			continue
		}
		for _, env := range r.Envs {
			tasks = append(tasks, task{root: r, env: env})
		}
	}
	res.Outputs = make([]Output, len(tasks))
	for i, t := range tasks {
		res.Outputs[i] = Output{Root: t.root.Index, Text: t.root.Text, Env: t.env.Name, Kind: t.root.Kind}
		emit(opts.Progress, Event{Root: res.Outputs[i].Label(), Stage: StageLower, Status: StatusQueued})
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	// Результаты пишутся по уникальным индексам, мьютекс не нужен
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(tasks))))
	for i, t := range tasks {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			return lowerOne(low, d, t, &res.Outputs[i], opts.Progress)
		})
	}
	return g.Wait()
}

// lowerOne runs one query and turns an internal fault into an error so
// the remaining workers are cancelled instead of the process crashing.
func lowerOne(low *mir.Lowerer, d *design.Design, t task, out *Output, sink ProgressSink) (err error) {
	start := time.Now()
	stage := StageLower
	emit(sink, Event{Root: out.Label(), Stage: stage, Status: StatusWorking})
	defer func() {
		if r := recover(); r != nil {
			fault, ok := r.(*mir.InternalFault)
			if !ok {
				panic(r)
			}
			err = fmt.Errorf("lowering %s: %w", out.Label(), fault)
		}
		status := StatusDone
		if err != nil || out.Failed {
			status = StatusError
		}
		emit(sink, Event{Root: out.Label(), Stage: stage, Status: status, Err: err, Elapsed: time.Since(start)})
	}()

	var sb strings.Builder
	if t.root.Kind == design.Rvalue {
		rv := low.Rvalue(t.root.Expr, t.env.ID)
		out.Rvalue, out.Failed = rv, rv.IsError()
		out.Snapshot = mir.TakeRvalueSnapshot(rv, d.Types)
		err = mir.DumpRvalue(&sb, rv, d.Types)
		out.Dump = sb.String()
		return err
	}

	lv := low.Lvalue(t.root.Expr, t.env.ID)
	out.Lvalue, out.Failed = lv, lv.IsError()
	stage = StageValidate
	if verr := mir.ValidateLvalue(lv, d.Types); verr != nil {
		panic(&mir.InternalFault{Span: lv.Span, Node: t.root.Expr, Msg: verr.Error()})
	}
	out.Snapshot = mir.TakeSnapshot(lv, d.Types)
	err = mir.DumpLvalue(&sb, lv, d.Types)
	out.Dump = sb.String()
	return err
}

func (r *Result) finish(ph phases, opts LowerOptions) {
	report := ph.timer.Report()
	r.Timing = &report
	if opts.EmitTimings {
		appendTimingDiagnostic(r.Bag, timingPayload{Path: r.Path, TotalMS: report.TotalMS, Phases: report.Phases})
	}
	r.Bag.Sort()
	// один и тот же корень под разными окружениями даёт одинаковые ошибки
	r.Bag.Dedup()
}

func parseKind(s string) design.Kind {
	if s == design.Rvalue.String() {
		return design.Rvalue
	}
	return design.Lvalue
}

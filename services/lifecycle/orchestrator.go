package lifecycle

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/whalebone/local-resolver-agent/interfaces"
	"github.com/whalebone/local-resolver-agent/models"
	"github.com/whalebone/local-resolver-agent/services"
	"github.com/whalebone/local-resolver-agent/services/compose"
)

// Options tune the orchestrator. Zero values fall back to the defaults in
// models.
type Options struct {
	AgentName    string
	PollInterval time.Duration
	PollAttempts int
}

func (o Options) withDefaults() Options {
	if o.AgentName == "" {
		o.AgentName = models.DefaultAgentName
	}
	if o.PollInterval <= 0 {
		o.PollInterval = models.DefaultPollInterval
	}
	if o.PollAttempts <= 0 {
		o.PollAttempts = models.DefaultPollAttempts
	}
	return o
}

// Orchestrator drives container lifecycles through the runtime, including
// the staged replacement of the agent's own container.
type Orchestrator struct {
	runtime    interfaces.Runtime
	translator *compose.Translator
	logger     *zap.Logger
	errs       *models.ErrorStash
	opts       Options
}

func NewOrchestrator(
	runtime interfaces.Runtime,
	translator *compose.Translator,
	logger *zap.Logger,
	errs *models.ErrorStash,
	opts Options,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if translator == nil {
		translator = compose.NewTranslator(nil)
	}
	return &Orchestrator{
		runtime:    runtime,
		translator: translator,
		logger:     logger.Named("lifecycle"),
		errs:       errs,
		opts:       opts.withDefaults(),
	}
}

func (o *Orchestrator) AgentName() string { return o.opts.AgentName }

// IsAgent reports whether name is the agent's own container.
func (o *Orchestrator) IsAgent(name string) bool {
	return name == o.opts.AgentName
}

func (o *Orchestrator) Translator() *compose.Translator { return o.translator }

// Start runs spec under its own name.
func (o *Orchestrator) Start(ctx context.Context, spec models.ServiceSpec) error {
	id, err := o.runtime.Run(ctx, spec)
	if err != nil {
		return o.fail("start", spec.Name, err)
	}
	o.logger.Info("service started", zap.String("name", spec.Name), zap.String("id", id))
	return nil
}

// StartBatch starts every service of doc independently and reports one
// outcome per service. A service named like the agent is staged under the
// staging name and promoted once every other service has been handled; any
// further service with the agent's name fails.
func (o *Orchestrator) StartBatch(ctx context.Context, doc *compose.Document) models.StatusMap {
	result := models.StatusMap{}
	var batchErr *multierror.Error

	specs, translateErrs := o.translator.Specs(doc)
	for name, err := range translateErrs {
		o.errs.Add("translate:"+name, err)
		batchErr = multierror.Append(batchErr, fmt.Errorf("%s: %w", name, err))
		result.Fail(name, err)
	}

	names := make([]string, 0, len(specs))
	for name := range specs {
		names = append(names, name)
	}
	sort.Strings(names)

	staged := ""
	for _, name := range names {
		spec := specs[name]
		if o.IsAgent(spec.Name) {
			if staged == "" {
				staged = name
				continue
			}
			err := models.NewError(models.KindSpecFormat, "service %q duplicates agent service %q", name, staged)
			o.errs.Add("start:"+name, err)
			batchErr = multierror.Append(batchErr, fmt.Errorf("%s: %w", name, err))
			result.Fail(name, err)
			continue
		}
		err := o.Start(ctx, spec)
		if err != nil {
			batchErr = multierror.Append(batchErr, fmt.Errorf("%s: %w", name, err))
		}
		result.Record(name, err)
	}

	if staged != "" {
		err := o.startStaged(ctx, specs[staged])
		if err != nil {
			batchErr = multierror.Append(batchErr, fmt.Errorf("%s: %w", staged, err))
		}
		result.Record(staged, err)
	}

	if err := batchErr.ErrorOrNil(); err != nil {
		o.logger.Warn("batch start finished with failures",
			zap.Int("services", len(result)),
			zap.Int("failed", result.Failed()),
			zap.Error(err),
		)
	}
	return result
}

// Stop stops each target independently.
func (o *Orchestrator) Stop(ctx context.Context, names []string) models.StatusMap {
	return o.each(names, "stop", func(name string) error {
		return o.runtime.Stop(ctx, name)
	})
}

func (o *Orchestrator) Restart(ctx context.Context, names []string) models.StatusMap {
	return o.each(names, "restart", func(name string) error {
		return o.runtime.Restart(ctx, name)
	})
}

// Remove force-removes each target independently.
func (o *Orchestrator) Remove(ctx context.Context, names []string) models.StatusMap {
	return o.each(names, "remove", func(name string) error {
		return o.runtime.Remove(ctx, name, true)
	})
}

// Rename applies every old -> new pair independently. Outcomes are keyed by
// the old name.
func (o *Orchestrator) Rename(ctx context.Context, pairs map[string]string) models.StatusMap {
	olds := make([]string, 0, len(pairs))
	for old := range pairs {
		olds = append(olds, old)
	}
	sort.Strings(olds)

	return o.each(olds, "rename", func(old string) error {
		return o.runtime.Rename(ctx, old, pairs[old])
	})
}

func (o *Orchestrator) Inspect(ctx context.Context, name string) (models.ContainerState, error) {
	st, err := o.runtime.Inspect(ctx, name)
	if err != nil {
		return st, runtimeError(err, "inspect %q", name)
	}
	return st, nil
}

func (o *Orchestrator) List(ctx context.Context) ([]models.ContainerSummary, error) {
	list, err := o.runtime.List(ctx)
	if err != nil {
		return nil, o.fail("list", "", err)
	}
	return list, nil
}

func (o *Orchestrator) Version(ctx context.Context) (models.RuntimeVersion, error) {
	v, err := o.runtime.Version(ctx)
	if err != nil {
		return v, runtimeError(err, "runtime version")
	}
	return v, nil
}

func (o *Orchestrator) each(names []string, op string, fn func(name string) error) models.StatusMap {
	result := make(models.StatusMap, len(names))
	for _, name := range names {
		if err := fn(name); err != nil {
			result.Fail(name, o.fail(op, name, err))
			continue
		}
		o.logger.Info("container "+op, zap.String("name", name))
		result.Succeed(name)
	}
	return result
}

// fail tags err as a runtime failure, stashes and logs it.
func (o *Orchestrator) fail(op, name string, err error) error {
	err = runtimeError(err, "%s %q", op, name)
	o.errs.Add(op+":"+services.CanonicalName(name), err)
	o.logger.Warn("runtime operation failed",
		zap.String("op", op),
		zap.String("name", name),
		zap.Error(err),
	)
	return err
}

// runtimeError tags err as RuntimeOperation unless it already carries a kind.
func runtimeError(err error, format string, args ...any) error {
	if err == nil || models.KindOf(err) != models.KindUnknown {
		return err
	}
	return models.WrapError(models.KindRuntimeOperation, err, format, args...)
}

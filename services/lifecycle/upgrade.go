package lifecycle

import (
	"context"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/whalebone/local-resolver-agent/models"
	"github.com/whalebone/local-resolver-agent/services"
)

type phase int

const (
	phaseRenaming phase = iota
	phaseStarting
	phasePollingReady
	phaseRemovingOld
	phaseCommitted
	phaseRollingBack
	phaseFailed
)

func (p phase) String() string {
	switch p {
	case phaseRenaming:
		return "renaming"
	case phaseStarting:
		return "starting"
	case phasePollingReady:
		return "polling-ready"
	case phaseRemovingOld:
		return "removing-old"
	case phaseCommitted:
		return "committed"
	case phaseRollingBack:
		return "rolling-back"
	default:
		return "failed"
	}
}

// upgradeTxn is the state of one replacement of the agent container. It
// lives for a single call.
type upgradeTxn struct {
	name    string // canonical
	oldName string
	spec    models.ServiceSpec
	phase   phase

	// oldMoved is set once the previous container runs under oldName.
	oldMoved bool
	// newName is the current name of the replacement, empty until it exists.
	newName string
}

// Upgrade replaces the container name with spec. The agent's own container
// goes through a reversible swap; any other service is removed and started
// again without rollback.
func (o *Orchestrator) Upgrade(ctx context.Context, name string, spec models.ServiceSpec) error {
	spec = spec.WithName(name)
	if o.IsAgent(name) {
		return o.upgradeAgent(ctx, spec)
	}

	if err := o.runtime.Remove(ctx, name, true); err != nil {
		return o.fail("upgrade", name, err)
	}
	// The old container is gone at this point and is not brought back.
	if err := o.Start(ctx, spec); err != nil {
		return err
	}
	o.logger.Info("service upgraded", zap.String("name", name), zap.String("image", spec.Image))
	return nil
}

func (o *Orchestrator) upgradeAgent(ctx context.Context, spec models.ServiceSpec) error {
	txn := &upgradeTxn{
		name:    spec.Name,
		oldName: services.RetiredName(spec.Name),
		spec:    spec,
	}
	log := o.logger.With(zap.String("name", txn.name), zap.String("image", spec.Image))

	txn.phase = phaseRenaming
	if err := o.runtime.Rename(ctx, txn.name, txn.oldName); err != nil {
		txn.phase = phaseFailed
		return o.fail("upgrade", txn.name, err)
	}
	txn.oldMoved = true

	txn.phase = phaseStarting
	if _, err := o.runtime.Run(ctx, txn.spec); err != nil {
		return o.rollback(ctx, txn, err)
	}
	txn.newName = txn.name

	txn.phase = phasePollingReady
	if err := o.waitRunning(ctx, txn.name); err != nil {
		return o.rollback(ctx, txn, err)
	}

	txn.phase = phaseRemovingOld
	if err := o.runtime.Remove(ctx, txn.oldName, true); err != nil {
		return o.rollback(ctx, txn, err)
	}

	txn.phase = phaseCommitted
	log.Info("agent upgrade committed")
	return nil
}

// startStaged starts the agent's replacement under the staging name and
// promotes it once it runs. Without a current agent container the
// replacement is promoted directly.
func (o *Orchestrator) startStaged(ctx context.Context, spec models.ServiceSpec) error {
	txn := &upgradeTxn{
		name:    spec.Name,
		oldName: services.RetiredName(spec.Name),
		spec:    spec.WithName(services.StagingName(spec.Name)),
	}
	log := o.logger.With(zap.String("name", txn.name), zap.String("staged", txn.spec.Name))

	txn.phase = phaseStarting
	if err := o.Start(ctx, txn.spec); err != nil {
		txn.phase = phaseFailed
		return err
	}
	txn.newName = txn.spec.Name

	txn.phase = phasePollingReady
	if err := o.waitRunning(ctx, txn.newName); err != nil {
		return o.rollback(ctx, txn, err)
	}

	txn.phase = phaseRenaming
	if _, err := o.runtime.Inspect(ctx, txn.name); err == nil {
		if err := o.runtime.Rename(ctx, txn.name, txn.oldName); err != nil {
			return o.rollback(ctx, txn, err)
		}
		txn.oldMoved = true
	} else {
		log.Info("no current agent container, promoting staged replacement")
	}

	if err := o.runtime.Rename(ctx, txn.newName, txn.name); err != nil {
		return o.rollback(ctx, txn, err)
	}
	txn.newName = txn.name

	if txn.oldMoved {
		txn.phase = phaseRemovingOld
		if err := o.runtime.Remove(ctx, txn.oldName, true); err != nil {
			return o.rollback(ctx, txn, err)
		}
	}

	txn.phase = phaseCommitted
	log.Info("staged agent promoted")
	return nil
}

// rollback removes the replacement and puts the previous container back
// under the canonical name. The returned error always carries cause.
func (o *Orchestrator) rollback(ctx context.Context, txn *upgradeTxn, cause error) error {
	failedIn := txn.phase
	txn.phase = phaseRollingBack
	// Restoring must run even when the caller's context is already done.
	ctx = context.WithoutCancel(ctx)

	o.logger.Warn("agent upgrade failed, rolling back",
		zap.String("name", txn.name),
		zap.Stringer("phase", failedIn),
		zap.Error(cause),
	)

	result := multierror.Append(nil, runtimeError(cause, "upgrade %q failed while %s", txn.name, failedIn))
	if txn.newName == "" && failedIn == phaseStarting {
		// A failed run may still have left a container under the name.
		if _, err := o.runtime.Inspect(ctx, txn.spec.Name); err == nil {
			txn.newName = txn.spec.Name
		}
	}
	if txn.newName != "" {
		if err := o.runtime.Remove(ctx, txn.newName, true); err != nil {
			result = multierror.Append(result, runtimeError(err, "rollback: remove %q", txn.newName))
		}
	}
	if txn.oldMoved {
		if err := o.runtime.Rename(ctx, txn.oldName, txn.name); err != nil {
			result = multierror.Append(result, runtimeError(err, "rollback: restore %q", txn.name))
		}
	}

	txn.phase = phaseFailed
	err := models.WrapError(models.KindRuntimeOperation, result.ErrorOrNil(), "upgrade %q rolled back", txn.name)
	o.errs.Add("upgrade:"+txn.name, err)
	return err
}

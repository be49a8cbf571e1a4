package appointment

import (
	"context"
	"time"

	domain "github.com/BruksfildServices01/clinic-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/models"
	"github.com/BruksfildServices01/clinic-scheduler/internal/timezone"
)

// ======================================================
// CONFIRM / COMPLETE / NO-SHOW
// ======================================================

type transition struct {
	action    string
	staffOnly bool
	apply     func(ap *models.Appointment, now time.Time) error
}

var (
	confirmTransition = transition{
		action: "appointment_confirmed",
		apply: func(ap *models.Appointment, _ time.Time) error {
			return domain.Confirm(ap)
		},
	}
	completeTransition = transition{
		action:    "appointment_completed",
		staffOnly: true,
		apply:     domain.Complete,
	}
	noShowTransition = transition{
		action:    "appointment_no_show",
		staffOnly: true,
		apply:     domain.MarkNoShow,
	}
)

// ChangeStatus runs one of the status transitions that need no rule beyond
// the lifecycle itself.
type ChangeStatus struct {
	repo  domain.Repository
	audit Auditor
	clock timezone.Clock
	t     transition
}

func NewConfirmAppointment(repo domain.Repository, audit Auditor, clock timezone.Clock) *ChangeStatus {
	return &ChangeStatus{repo: repo, audit: audit, clock: clock, t: confirmTransition}
}

func NewCompleteAppointment(repo domain.Repository, audit Auditor, clock timezone.Clock) *ChangeStatus {
	return &ChangeStatus{repo: repo, audit: audit, clock: clock, t: completeTransition}
}

func NewMarkNoShow(repo domain.Repository, audit Auditor, clock timezone.Clock) *ChangeStatus {
	return &ChangeStatus{repo: repo, audit: audit, clock: clock, t: noShowTransition}
}

func (uc *ChangeStatus) Execute(
	ctx context.Context,
	actor Actor,
	appointmentID uint,
) (*models.Appointment, error) {

	if uc.t.staffOnly && !isStaff(actor) {
		return nil, httperr.ErrBusiness("forbidden")
	}

	ap, err := loadForActor(ctx, uc.repo, actor, appointmentID)
	if err != nil {
		return nil, err
	}

	if err := uc.t.apply(ap, uc.clock.Now()); err != nil {
		return nil, err
	}

	if err := uc.repo.UpdateAppointment(ctx, ap); err != nil {
		return nil, err
	}

	uc.audit.Dispatch(actor.event(uc.t.action, &ap.ID, nil))

	return ap, nil
}

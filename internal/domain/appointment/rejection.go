package appointment

import "errors"

// Reason identifies why a booking, reschedule or cancellation was refused.
type Reason string

const (
	ReasonPastDate          Reason = "past_date"
	ReasonDoctorUnavailable Reason = "doctor_unavailable"
	ReasonSlotTaken         Reason = "slot_taken"
	ReasonLeadTimeViolation Reason = "lead_time_violation"
	ReasonDuplicateBooking  Reason = "duplicate_booking"
	ReasonNotYetDue         Reason = "not_yet_due"
)

type Rejection struct {
	Reason Reason
}

func (r *Rejection) Error() string {
	return "appointment rejected: " + string(r.Reason)
}

func Reject(reason Reason) error {
	return &Rejection{Reason: reason}
}

// AsRejection unwraps err into a Rejection when it carries one.
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

func IsRejected(err error, reason Reason) bool {
	r, ok := AsRejection(err)
	return ok && r.Reason == reason
}

var (
	ErrNotFound              = errors.New("not found")
	ErrConfirmationCodeTaken = errors.New("confirmation code already in use")
)

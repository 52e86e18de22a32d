package catalog

import (
	"errors"
	"fmt"
	"log/slog"
)

// Kind names the remote object type a report entry refers to.
type Kind string

const (
	KindProduct Kind = "product"
	KindPrice   Kind = "price"
)

// Ref identifies one remote object by internal and provider id.
type Ref struct {
	Kind     Kind   `json:"kind"`
	ID       string `json:"id"`
	RemoteID string `json:"remote_id,omitempty"`
}

// Failure is a Ref that could not be processed.
type Failure struct {
	Ref
	Err error `json:"-"`
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s %s: %v", f.Kind, f.ID, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// Report records what a reconciliation command did.
type Report struct {
	Created  []Ref     `json:"created,omitempty"`
	Skipped  []Ref     `json:"skipped,omitempty"`
	Updated  []Ref     `json:"updated,omitempty"`
	Archived []Ref     `json:"archived,omitempty"`
	Failed   []Failure `json:"failed,omitempty"`
}

func (r *Report) created(k Kind, id, remoteID string)  { r.Created = append(r.Created, Ref{k, id, remoteID}) }
func (r *Report) skipped(k Kind, id, remoteID string)  { r.Skipped = append(r.Skipped, Ref{k, id, remoteID}) }
func (r *Report) updated(k Kind, id, remoteID string)  { r.Updated = append(r.Updated, Ref{k, id, remoteID}) }
func (r *Report) archived(k Kind, id, remoteID string) { r.Archived = append(r.Archived, Ref{k, id, remoteID}) }

func (r *Report) failed(k Kind, id, remoteID string, err error) {
	r.Failed = append(r.Failed, Failure{Ref: Ref{k, id, remoteID}, Err: err})
}

// Count returns the number of entries of kind k in refs.
func Count(refs []Ref, k Kind) int {
	n := 0
	for _, r := range refs {
		if r.Kind == k {
			n++
		}
	}
	return n
}

// Err joins every recorded failure, or returns nil.
func (r *Report) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Failed))
	for _, f := range r.Failed {
		errs = append(errs, f)
	}
	return errors.Join(errs...)
}

// LogValue summarises the report as counts.
func (r *Report) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("created", len(r.Created)),
		slog.Int("skipped", len(r.Skipped)),
		slog.Int("updated", len(r.Updated)),
		slog.Int("archived", len(r.Archived)),
		slog.Int("failed", len(r.Failed)),
	)
}

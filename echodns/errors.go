package main

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

type ErrorKind int

const (
	KindUnclassified ErrorKind = iota
	KindNotFound
	KindNoAnswer
	KindTransport
	KindTransferRefused
	KindTransferTimeout
	KindNameserverUnresolved
)

var errorKindNames = map[ErrorKind]string{
	KindUnclassified:         "unclassified",
	KindNotFound:             "not_found",
	KindNoAnswer:             "no_answer",
	KindTransport:            "transport",
	KindTransferRefused:      "transfer_refused",
	KindTransferTimeout:      "transfer_timeout",
	KindNameserverUnresolved: "nameserver_unresolved",
}

func (kind ErrorKind) String() string {
	if name, ok := errorKindNames[kind]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(kind))
}

// QueryError is the only error type components hand back to the dispatcher.
// Err of a KindUnclassified error carries the stack where it was classified.
type QueryError struct {
	Kind       ErrorKind
	Domain     string
	RecordType string
	Err        error
}

func (e *QueryError) Error() string {
	target := e.Domain
	if len(e.RecordType) > 0 {
		target = e.RecordType + " " + target
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", target, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", target, e.Kind, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

func newQueryError(kind ErrorKind, domain, recordType string, err error) *QueryError {
	if kind == KindUnclassified && err != nil {
		err = pkgerrors.WithStack(err)
	}
	return &QueryError{Kind: kind, Domain: domain, RecordType: recordType, Err: err}
}

func KindOf(err error) ErrorKind {
	var queryErr *QueryError
	if errors.As(err, &queryErr) {
		return queryErr.Kind
	}
	return KindUnclassified
}

// Cause returns the innermost error, skipping QueryError and stack wrappers.
func Cause(err error) error {
	var queryErr *QueryError
	if errors.As(err, &queryErr) && queryErr.Err != nil {
		return pkgerrors.Cause(queryErr.Err)
	}
	return pkgerrors.Cause(err)
}

// Package circuiterr collects the typed, fatal errors the loaders and
// circuit builder can raise. Semantic "no match" is never one of these —
// only shape and configuration violations are.
package circuiterr

import (
	"fmt"
	"regexp"
)

// ShapeMismatch is raised when a wire bundle or SIMD group does not have
// the width its caller assumed.
type ShapeMismatch struct {
	Context string
	Want    int
	Got     int
}

func (e *ShapeMismatch) Error() string {
	return fmt.Sprintf("shape mismatch in %s: want width %d, got %d", e.Context, e.Want, e.Got)
}

// InvalidBucketScheme is raised when a keyword or index bucket names a
// bucket_size absent from the public bucket scheme.
type InvalidBucketScheme struct {
	BucketSize int
	Scheme     []int
}

func (e *InvalidBucketScheme) Error() string {
	return fmt.Sprintf("bucket size %d is not present in bucket scheme %v", e.BucketSize, e.Scheme)
}

// InvalidSearchMode is raised for an unrecognised --search-mode value.
type InvalidSearchMode struct {
	Mode string
}

func (e *InvalidSearchMode) Error() string {
	return fmt.Sprintf("invalid search mode %q (want one of: normal, hidden, bucket, index)", e.Mode)
}

// UnknownField is raised when a query/mail/index share file contains a key
// the loader does not recognise, rather than silently ignoring it.
type UnknownField struct {
	File  string
	Field string
}

func (e *UnknownField) Error() string {
	return fmt.Sprintf("%s: unknown field %q", e.File, e.Field)
}

var yamlUnknownFieldPattern = regexp.MustCompile(`field (\S+) not found in type`)

// AsUnknownField turns a yaml.v3 KnownFields(true) decode error into an
// *UnknownField naming the offending key, so callers can report which
// key was unrecognised instead of just "decode failed". If err does not
// match that shape, it is returned unchanged.
func AsUnknownField(file string, err error) error {
	if err == nil {
		return nil
	}
	if m := yamlUnknownFieldPattern.FindStringSubmatch(err.Error()); m != nil {
		return &UnknownField{File: file, Field: m[1]}
	}
	return err
}

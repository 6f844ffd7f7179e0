package util

import (
	"fmt"
	"iter"
	"log/slog"
)

// LenientParse lazily applies transform to every element of items.
//
// When lenient is false the first failure is yielded as an error and
// iteration stops. When lenient is true each failure is logged as a warning
// naming the element, the element is dropped, and iteration continues. A nil
// log means slog.Default().
func LenientParse[T, U any](items iter.Seq[T], transform func(T) (U, error), lenient bool, log *slog.Logger) iter.Seq2[U, error] {
	if log == nil {
		log = slog.Default()
	}
	return func(yield func(U, error) bool) {
		for item := range items {
			out, err := transform(item)
			if err == nil {
				if !yield(out, nil) {
					return
				}
				continue
			}
			if !lenient {
				var zero U
				yield(zero, err)
				return
			}
			log.Warn("skipping record that failed to parse",
				"record", fmt.Sprintf("%+v", item),
				"error", err,
			)
		}
	}
}

// CollectLenient runs LenientParse to completion, returning the surviving
// outputs or the first error.
func CollectLenient[T, U any](items iter.Seq[T], transform func(T) (U, error), lenient bool, log *slog.Logger) ([]U, error) {
	var out []U
	for v, err := range LenientParse(items, transform, lenient, log) {
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

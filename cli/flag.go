package cli

import (
	"strconv"
	"strings"

	"github.com/morikuni/failure/v2"
	"github.com/spf13/pflag"
)

// sizeFlag accepts an edge length as "N" or "NxN"
type sizeFlag struct {
	IsSet bool
	Value int
}

// String implements pflag.Value.
func (s *sizeFlag) String() string {
	return strconv.Itoa(s.Value)
}

func (s *sizeFlag) Set(value string) error {
	n, err := parseSize(value)
	if err != nil {
		return err
	}
	s.Value = n
	s.IsSet = true
	return nil
}

func (s *sizeFlag) Type() string {
	return "size"
}

var _ pflag.Value = &sizeFlag{}

func parseSize(value string) (int, error) {
	w, h, found := strings.Cut(strings.ToLower(value), "x")
	if found && w != h {
		return 0, failure.New(InvalidSize,
			failure.Message("Size must be square, e.g. 16 or 16x16"),
			failure.Context{"size": value})
	}
	n, err := strconv.Atoi(w)
	if err != nil || n <= 0 {
		return 0, failure.New(InvalidSize,
			failure.Message("Size must be a positive number of pixels"),
			failure.Context{"size": value})
	}
	return n, nil
}

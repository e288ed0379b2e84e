package id

import (
	"strconv"
)

// Generator id generator
type Generator interface {
	Gen() (uint64, error)
}

// MustGen returns next id, panic if failed
func MustGen(g Generator) uint64 {
	value, err := g.Gen()
	if err != nil {
		panic(err)
	}

	return value
}

// GenString returns next id in hex
func GenString(g Generator) (string, error) {
	value, err := g.Gen()
	if err != nil {
		return "", err
	}

	return strconv.FormatUint(value, 16), nil
}

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseConfigValue(t *testing.T) {
	// Numeric keys like filter.expression come back as float64
	assert.Equal(t, 5.0, parseConfigValue("5"))
	assert.Equal(t, 0.5, parseConfigValue("0.5"))

	// Path keys like history.db stay strings
	assert.Equal(t, "~/.countfilter-history.duckdb", parseConfigValue("~/.countfilter-history.duckdb"))
	assert.Equal(t, "counts.tsv", parseConfigValue("counts.tsv"))
}

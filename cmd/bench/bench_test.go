package main

import (
	"fmt"
	"strings"
	"testing"
)

func TestApplyCartesian(t *testing.T) {
	var got []string
	applyCartesian(func(args []interface{}) {
		got = append(got, fmt.Sprint(args...))
	}, [][]interface{}{{1, 2}, {"a"}, {0.5, 1.0}})
	want := []string{"1a0.5", "1a1", "2a0.5", "2a1"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("applyCartesian visited %v, want %v", got, want)
	}
}

func TestLineTemplateMatchesHeader(t *testing.T) {
	if n, m := strings.Count(header(), ","), strings.Count(lineTmpl(), ","); n != m {
		t.Errorf("header has %d separators, line template %d", n, m)
	}
}

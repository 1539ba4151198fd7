package cimport

import "testing"

func TestExtractIncludeNames(t *testing.T) {
	src := `
#include <stdio.h>
#include "local.h"
int add(int a, int b) { return a + b; }
`
	got := extractIncludeNames(src)
	if len(got) != 2 {
		t.Fatalf("extractIncludeNames = %v, want 2 entries", got)
	}
}

func TestExtractIncludeNames_NoIncludes(t *testing.T) {
	got := extractIncludeNames("int add(int a, int b) { return a + b; }")
	if len(got) != 0 {
		t.Fatalf("extractIncludeNames = %v, want none", got)
	}
}

func TestTranslate_UnconfiguredIsTransientNoResult(t *testing.T) {
	tr := SubprocessTranslator{}
	res, err := tr.Translate(nil, "int x;", nil)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if res != nil {
		t.Fatalf("Translate result = %v, want nil (unconfigured translator)", res)
	}
}

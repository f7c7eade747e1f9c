// Package language describes the per-exercise switches a front end and the
// evaluator honour.
package language

import "strings"

type Features struct {
	// IncludeTokens, when non-empty, is the complete list of tokens the
	// learner may use. ExcludeTokens removes tokens from whatever is
	// otherwise allowed. Both hold token spellings such as "while" or "+".
	IncludeTokens []string `toml:"include_tokens" yaml:"include_tokens"`
	ExcludeTokens []string `toml:"exclude_tokens" yaml:"exclude_tokens"`

	RequireStatementTerminators bool `toml:"require_statement_terminators" yaml:"require_statement_terminators"`
	AllowTruthiness             bool `toml:"allow_truthiness" yaml:"allow_truthiness"`
	AllowMembershipOnLists      bool `toml:"allow_membership_on_lists" yaml:"allow_membership_on_lists"`

	// AllowRedefinition turns a second `set` of the same name in the same
	// scope into a plain reassignment instead of a fault.
	AllowRedefinition bool `toml:"allow_redefinition" yaml:"allow_redefinition"`

	// HaltOnFirstError stops the trace at the first runtime fault instead
	// of continuing with the next top-level statement.
	HaltOnFirstError bool `toml:"halt_on_first_error" yaml:"halt_on_first_error"`

	// GovernEveryStatement makes the governor check the time ceiling on
	// every step rather than only on loop iterations and calls.
	GovernEveryStatement bool `toml:"govern_every_statement" yaml:"govern_every_statement"`
}

// TokenAllowed reports whether the exercise configuration lets the learner
// use the token spelled name.
func (f Features) TokenAllowed(name string) bool {
	name = strings.ToLower(name)
	if len(f.IncludeTokens) > 0 && !contains(f.IncludeTokens, name) {
		return false
	}
	return !contains(f.ExcludeTokens, name)
}

func contains(list []string, name string) bool {
	for _, s := range list {
		if strings.ToLower(s) == name {
			return true
		}
	}
	return false
}

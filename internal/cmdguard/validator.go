// Package cmdguard decides whether a command string may be executed on the host.
//
// Validation is a deny-by-default pipeline that stops at the first failing stage:
//
//  1. Shape: non-empty, at most MaxCommandLength characters
//  2. Characters: no control, format or non-canonical (NFKC) characters
//  3. Injection: no chaining, substitution, redirection or expansion syntax
//  4. Blacklist: no destructive or privilege-changing substrings
//  5. Whitelist: must start with an enumerated read-only command and carry
//     none of the arguments that turn that command into a write
//
// The whitelist is the security boundary. The earlier stages exist to fail fast
// and to give the caller a precise reason.
package cmdguard

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/xdg/hostgate/internal/rules"
)

// MaxCommandLength is the longest command accepted, in characters.
const MaxCommandLength = 2048

// Validator checks commands against a RuleSet. It holds no mutable state and
// is safe for concurrent use.
type Validator struct {
	platform  rules.Platform
	dangerous []string
	injection []rules.InjectionPattern
	prefixes  []string
	exact     []string
	denied    map[string][]string
}

// New creates a Validator for the given rule set.
func New(rs *rules.RuleSet) *Validator {
	return &Validator{
		platform:  rs.Platform(),
		dangerous: rs.DangerousSubstrings(),
		injection: rs.InjectionPatterns(),
		prefixes:  lowerAll(rs.WhitelistPrefixes()),
		exact:     lowerAll(rs.WhitelistExact()),
		denied:    lowerArgs(rs.DeniedArguments()),
	}
}

// Platform returns the platform family of the underlying rule set.
func (v *Validator) Platform() rules.Platform {
	return v.platform
}

// Validate returns the verdict for command.
func (v *Validator) Validate(command string) rules.Verdict {
	if strings.TrimSpace(command) == "" {
		return rules.Deny("empty command")
	}
	if n := utf8.RuneCountInString(command); n > MaxCommandLength {
		return rules.Deny("command too long (%d characters, max %d)", n, MaxCommandLength)
	}

	if !validCharacters(command) {
		return rules.Deny("invalid characters")
	}

	// Injection runs ahead of the blacklist so a chained command is reported as
	// chaining even when the chained part is itself blacklisted.
	for _, p := range v.injection {
		if p.Matches(command) {
			return rules.Deny("command injection pattern detected: %s", p.Description)
		}
	}

	lower := strings.ToLower(command)
	for _, s := range v.dangerous {
		if strings.Contains(lower, s) {
			return rules.Deny("blocked dangerous pattern: %q", s)
		}
	}

	return v.whitelist(strings.Join(strings.Fields(lower), " "))
}

// whitelist accepts a normalized command that equals an exact entry, or
// starts with a prefix entry at a word boundary and carries none of that
// prefix's denied arguments.
func (v *Validator) whitelist(cmd string) rules.Verdict {
	if slices.Contains(v.exact, cmd) {
		return rules.Allow()
	}
	for _, p := range v.prefixes {
		if cmd != p && !strings.HasPrefix(cmd, p+" ") {
			continue
		}
		for _, arg := range strings.Fields(cmd[len(p):]) {
			// Quotes are removed before the argument reaches the program.
			arg = unquote.Replace(arg)
			for _, form := range v.denied[p] {
				if deniedArgument(arg, form) {
					return rules.Deny("command not in whitelist: %s does not accept %s", p, arg)
				}
			}
		}
		return rules.Allow()
	}
	return rules.Deny("command not in whitelist: %s", strings.Fields(cmd)[0])
}

var unquote = strings.NewReplacer(`"`, "", "'", "")

// deniedArgument reports whether arg is an instance of form. See
// rules.RuleSet.DeniedArguments for the forms.
func deniedArgument(arg, form string) bool {
	if arg == form {
		return true
	}
	switch {
	case strings.HasPrefix(form, "--"):
		name, _, _ := strings.Cut(arg, "=")
		// Long options may be abbreviated to any unambiguous prefix.
		return len(name) > 2 && strings.HasPrefix(form, name)
	case strings.HasPrefix(form, "-") && len(form) == 2:
		return len(arg) > 1 && arg[0] == '-' && arg[1] != '-' && strings.ContainsRune(arg[1:], rune(form[1]))
	case strings.HasPrefix(form, "/"):
		// Windows switches also accept a leading dash.
		return strings.HasPrefix(arg, form) || strings.HasPrefix(arg, "-"+form[1:])
	}
	return false
}

// validCharacters rejects control characters (tab and line breaks are left to
// the injection stage), format characters such as bidi overrides and
// zero-width joiners, invalid UTF-8, and text that changes under NFKC.
func validCharacters(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		switch r {
		case '\t', '\n', '\r':
			continue
		}
		if unicode.IsControl(r) || unicode.Is(unicode.Cf, r) {
			return false
		}
	}
	return norm.NFKC.IsNormalString(s)
}

func lowerArgs(in map[string][]string) map[string][]string {
	out := make(map[string][]string, len(in))
	for k, v := range in {
		out[strings.ToLower(k)] = lowerAll(v)
	}
	return out
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

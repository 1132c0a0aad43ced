package lint

import (
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/multierr"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/bibkit/pica/internal/matcher"
	"github.com/bibkit/pica/internal/selector"
	"github.com/bibkit/pica/internal/types"
)

// check evaluates one record. A passing check returns ok with an empty
// message; a failing one describes the first violation it saw.
type check interface {
	check(rec types.Record) (ok bool, msg string)
}

// Rule is one named, compiled check of a rule set.
type Rule struct {
	Name     string
	Severity Severity
	check    check
}

// Check evaluates the rule against one record, nil when it passes.
func (r *Rule) Check(rec types.Record) *Finding {
	ok, msg := r.check.check(rec)
	if ok {
		return nil
	}
	return &Finding{Rule: r.Name, Severity: r.Severity, Message: msg}
}

// RuleSet is an ordered list of compiled rules.
type RuleSet struct {
	Rules []*Rule
}

// Check evaluates all rules in declaration order and returns the
// findings of the failing ones.
func (s *RuleSet) Check(rec types.Record) []Finding {
	var findings []Finding
	for _, r := range s.Rules {
		if f := r.Check(rec); f != nil {
			findings = append(findings, *f)
		}
	}
	return findings
}

type ruleHeader struct {
	Name     string `yaml:"name"`
	Kind     string `yaml:"kind"`
	Severity string `yaml:"severity"`
}

type filterConfig struct {
	Filter string `yaml:"filter"`
	Invert bool   `yaml:"invert"`
}

type checksumConfig struct {
	Path string `yaml:"path"`
}

type dateConfig struct {
	Path   string `yaml:"path"`
	Layout string `yaml:"layout"`
}

type unicodeConfig struct {
	Path string `yaml:"path"`
	NFC  bool   `yaml:"nfc"`
}

type ruleSetDoc struct {
	Rules []yaml.Node `yaml:"rules"`
}

// Load parses and compiles a rule-set document. Every rule is validated;
// the returned error aggregates all invalid rules, not just the first.
func Load(data []byte, opts matcher.Options) (*RuleSet, error) {
	var doc ruleSetDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("rule set: %w", err)
	}
	if len(doc.Rules) == 0 {
		return nil, fmt.Errorf("rule set: no rules")
	}

	set := &RuleSet{}
	var errs error
	for i := range doc.Rules {
		rule, err := compileRule(&doc.Rules[i], opts)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("rule %d: %w", i, err))
			continue
		}
		set.Rules = append(set.Rules, rule)
	}
	if errs != nil {
		return nil, errs
	}
	return set, nil
}

func compileRule(node *yaml.Node, opts matcher.Options) (*Rule, error) {
	var hdr ruleHeader
	if err := node.Decode(&hdr); err != nil {
		return nil, err
	}
	if hdr.Name == "" {
		return nil, fmt.Errorf("missing name")
	}
	severity, err := ParseSeverity(hdr.Severity)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", hdr.Name, err)
	}

	rule := &Rule{Name: hdr.Name, Severity: severity}
	switch hdr.Kind {
	case "filter":
		var cfg filterConfig
		if err := node.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", hdr.Name, err)
		}
		rule.check, err = newFilterCheck(cfg, opts)
	case "checksum":
		var cfg checksumConfig
		if err := node.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", hdr.Name, err)
		}
		rule.check, err = newChecksumCheck(cfg)
	case "date":
		var cfg dateConfig
		if err := node.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", hdr.Name, err)
		}
		rule.check, err = newDateCheck(cfg)
	case "unicode":
		var cfg unicodeConfig
		if err := node.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", hdr.Name, err)
		}
		rule.check, err = newUnicodeCheck(cfg)
	case "":
		return nil, fmt.Errorf("%s: missing kind", hdr.Name)
	default:
		return nil, fmt.Errorf("%s: unknown check kind %q", hdr.Name, hdr.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", hdr.Name, err)
	}
	return rule, nil
}

type filterCheck struct {
	matcher *matcher.Matcher
	invert  bool
}

func newFilterCheck(cfg filterConfig, opts matcher.Options) (check, error) {
	if cfg.Filter == "" {
		return nil, fmt.Errorf("missing filter")
	}
	m, err := matcher.Compile(cfg.Filter, opts)
	if err != nil {
		return nil, err
	}
	return &filterCheck{matcher: m, invert: cfg.Invert}, nil
}

func (c *filterCheck) check(rec types.Record) (bool, string) {
	if c.matcher.Match(rec) != c.invert {
		return true, ""
	}
	if c.invert {
		return false, fmt.Sprintf("record matches forbidden filter %s", c.matcher)
	}
	return false, fmt.Sprintf("record does not match filter %s", c.matcher)
}

type checksumCheck struct {
	path *selector.Path
}

func newChecksumCheck(cfg checksumConfig) (check, error) {
	p, err := parseRulePath(cfg.Path)
	if err != nil {
		return nil, err
	}
	return &checksumCheck{path: p}, nil
}

func (c *checksumCheck) check(rec types.Record) (bool, string) {
	for _, value := range c.path.Values(rec) {
		if !ValidIdentifier(string(value)) {
			return false, fmt.Sprintf("%s: invalid check digit in %q", c.path, value)
		}
	}
	return true, ""
}

type dateCheck struct {
	path   *selector.Path
	layout string
}

func newDateCheck(cfg dateConfig) (check, error) {
	p, err := parseRulePath(cfg.Path)
	if err != nil {
		return nil, err
	}
	layout := cfg.Layout
	if layout == "" {
		layout = "20060102"
	}
	return &dateCheck{path: p, layout: layout}, nil
}

func (c *dateCheck) check(rec types.Record) (bool, string) {
	for _, value := range c.path.Values(rec) {
		if _, err := time.Parse(c.layout, string(value)); err != nil {
			return false, fmt.Sprintf("%s: %q does not match layout %q", c.path, value, c.layout)
		}
	}
	return true, ""
}

type unicodeCheck struct {
	path *selector.Path
	nfc  bool
}

func newUnicodeCheck(cfg unicodeConfig) (check, error) {
	p, err := parseRulePath(cfg.Path)
	if err != nil {
		return nil, err
	}
	return &unicodeCheck{path: p, nfc: cfg.NFC}, nil
}

func (c *unicodeCheck) check(rec types.Record) (bool, string) {
	for _, value := range c.path.Values(rec) {
		if !utf8.Valid(value) {
			return false, fmt.Sprintf("%s: %q is not valid UTF-8", c.path, value)
		}
		if c.nfc && !norm.NFC.IsNormal(value) {
			return false, fmt.Sprintf("%s: %q is not NFC-normalized", c.path, value)
		}
	}
	return true, ""
}

func parseRulePath(s string) (*selector.Path, error) {
	if s == "" {
		return nil, fmt.Errorf("missing path")
	}
	return selector.ParsePath(s)
}

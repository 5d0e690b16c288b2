// Package validate checks generated dashboards and rule files: every
// Prometheus expression must parse, and every metric it references must be
// one the application actually exports.
package validate

import (
	"fmt"
	"strings"

	"github.com/grafana/grafana-foundation-sdk/go/dashboard"
	"github.com/grafana/grafana-foundation-sdk/go/prometheus"
	"github.com/prometheus/prometheus/promql/parser"

	"github.com/skindex/skindex/tools/dashgen/rules"
)

// Result collects validation findings. Errors fail the build; warnings are
// informational.
type Result struct {
	Errors   []string
	Warnings []string
}

// Ok reports whether validation passed.
func (r Result) Ok() bool {
	return len(r.Errors) == 0
}

func (r *Result) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Result) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Dashboard validates every Prometheus target expression in a built
// dashboard against the known metric set.
func Dashboard(dash dashboard.Dashboard, known map[string]bool) Result {
	var res Result

	for _, p := range dash.Panels {
		if p.Panel != nil {
			checkPanel(&res, p.Panel, known)
		}
		if p.RowPanel != nil {
			for i := range p.RowPanel.Panels {
				checkPanel(&res, &p.RowPanel.Panels[i], known)
			}
		}
	}

	return res
}

// Rules validates every expression in a PrometheusRule CR.
func Rules(cr rules.PrometheusRule, known map[string]bool) Result {
	var res Result

	for _, group := range cr.Spec.Groups {
		for _, rule := range group.Rules {
			name := rule.Record
			if name == "" {
				name = rule.Alert
			}
			checkExpr(&res, fmt.Sprintf("rule %q", name), rule.Expr, known)
		}
	}

	return res
}

func checkPanel(res *Result, p *dashboard.Panel, known map[string]bool) {
	title := "(untitled)"
	if p.Title != nil {
		title = *p.Title
	}
	for _, target := range p.Targets {
		expr := targetExpr(target)
		if expr == "" {
			res.warnf("panel %q has a target with no expression", title)
			continue
		}
		checkExpr(res, fmt.Sprintf("panel %q", title), expr, known)
	}
}

func targetExpr(target any) string {
	switch t := target.(type) {
	case prometheus.Dataquery:
		return t.Expr
	case *prometheus.Dataquery:
		return t.Expr
	}
	return ""
}

func checkExpr(res *Result, where, expr string, known map[string]bool) {
	node, err := parser.ParseExpr(expr)
	if err != nil {
		res.errorf("%s: invalid PromQL %q: %v", where, expr, err)
		return
	}

	parser.Inspect(node, func(n parser.Node, _ []parser.Node) error {
		vs, ok := n.(*parser.VectorSelector)
		if !ok || vs.Name == "" {
			return nil
		}
		if !known[baseMetric(vs.Name)] {
			res.errorf("%s: unknown metric %q", where, vs.Name)
		}
		return nil
	})
}

// baseMetric strips histogram series suffixes so bucket queries resolve to
// the metric the application registers.
func baseMetric(name string) string {
	for _, suffix := range []string{"_bucket", "_sum", "_count"} {
		if strings.HasSuffix(name, suffix) {
			return strings.TrimSuffix(name, suffix)
		}
	}
	return name
}

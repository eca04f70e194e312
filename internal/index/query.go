package index

import (
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"hoard-go/internal/model"
)

// leadingNumber matches the numeric sub-value of a metadata value,
// e.g. 24 in "24fps" or -1.5 in "-1.5 stops".
var leadingNumber = regexp.MustCompile(`^\s*[-+]?(\d+(\.\d*)?|\.\d+)`)

// numericValue extracts the numeric sub-value of a metadata value.
func numericValue(v string) sql.NullFloat64 {
	m := leadingNumber.FindString(v)
	if m == "" {
		return sql.NullFloat64{}
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(m), 64)
	if err != nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}

var orderingOps = map[string]bool{"<": true, ">": true, "<=": true, ">=": true}

// buildQuery turns q into one SELECT over assets. Every filter kind adds an
// asset_id IN (...) clause; the clauses are combined with AND.
func buildQuery(q model.Query) (string, []interface{}, error) {
	var (
		where []string
		args  []interface{}
	)

	if q.Repo != "" {
		where = append(where, "a.repo = ?")
		args = append(args, q.Repo)
	}
	if prefix := model.NormalizePathPrefix(q.PathPrefix); prefix != "" {
		where = append(where, "substr(a.uri_path, 1, length(?)) = ?")
		args = append(args, prefix, prefix)
	}
	if q.Name != "" {
		where = append(where, "a.name = ?")
		args = append(args, q.Name)
	}

	if len(q.Keywords) > 0 {
		kws := make([]string, 0, len(q.Keywords))
		for _, kw := range q.Keywords {
			n, err := model.NormalizeKeyword(kw)
			if err != nil {
				return "", nil, fmt.Errorf("%w: %v", model.ErrInvalidQuery, err)
			}
			kws = append(kws, n)
		}
		clause, clauseArgs := matchAny(
			`SELECT ak.asset_id FROM assets_keywords ak
			 JOIN keywords k ON k.keyword_id = ak.keyword_id
			 WHERE k.keyword IN (%s)
			 GROUP BY ak.asset_id`,
			"k.keyword", dedupe(kws), q.KeywordsAll)
		where = append(where, clause)
		args = append(args, clauseArgs...)
	}

	if len(q.MetadataKeys) > 0 {
		keys := make([]string, 0, len(q.MetadataKeys))
		for _, k := range q.MetadataKeys {
			n, err := model.NormalizeMetadataKey(k)
			if err != nil {
				return "", nil, fmt.Errorf("%w: %v", model.ErrInvalidQuery, err)
			}
			keys = append(keys, n)
		}
		clause, clauseArgs := matchAny(
			`SELECT am.asset_id FROM assets_metadata am
			 JOIN metadata m ON m.metadata_id = am.metadata_id
			 WHERE m.metadata_key IN (%s)
			 GROUP BY am.asset_id`,
			"m.metadata_key", dedupe(keys), q.MetadataAll)
		where = append(where, clause)
		args = append(args, clauseArgs...)
	}

	if len(q.Metadata) > 0 {
		var (
			parts     []string
			partsArgs []interface{}
		)
		for _, f := range q.Metadata {
			part, partArgs, err := metadataFilter(f)
			if err != nil {
				return "", nil, err
			}
			parts = append(parts, part)
			partsArgs = append(partsArgs, partArgs...)
		}
		joiner := " OR "
		if q.MetadataAll {
			joiner = " AND "
		}
		where = append(where, "("+strings.Join(parts, joiner)+")")
		args = append(args, partsArgs...)
	}

	stmt := "SELECT a.asset_id, a.repo, a.uri, a.uri_path, a.name, a.parent_dir, a.asset_dir FROM assets a"
	if len(where) > 0 {
		stmt += " WHERE " + strings.Join(where, " AND ")
	}
	stmt += " ORDER BY a.uri"
	return stmt, args, nil
}

// matchAny renders an asset_id IN clause over a grouped sub-select. With
// all set, an asset must carry every value.
func matchAny(subquery, column string, values []string, all bool) (string, []interface{}) {
	args := make([]interface{}, 0, len(values))
	for _, v := range values {
		args = append(args, v)
	}
	sub := fmt.Sprintf(subquery, placeholders(len(values)))
	if all {
		sub += fmt.Sprintf(" HAVING COUNT(DISTINCT %s) = %d", column, len(values))
	}
	return "a.asset_id IN (" + sub + ")", args
}

func metadataFilter(f model.MetadataFilter) (string, []interface{}, error) {
	key, err := model.NormalizeMetadataKey(f.Key)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", model.ErrInvalidQuery, err)
	}

	var cond string
	var value interface{}
	switch {
	case f.Op == "=" || f.Op == "!=":
		cond = "m.metadata_value " + f.Op + " ?"
		value = f.Value
	case orderingOps[f.Op]:
		n := numericValue(f.Value)
		if !n.Valid {
			return "", nil, fmt.Errorf("%w: %s %s %q needs a number", model.ErrInvalidQuery, key, f.Op, f.Value)
		}
		cond = "m.metadata_num_value IS NOT NULL AND m.metadata_num_value " + f.Op + " ?"
		value = n.Float64
	default:
		return "", nil, fmt.Errorf("%w: unknown operator %q", model.ErrInvalidQuery, f.Op)
	}

	return `a.asset_id IN (SELECT am.asset_id FROM assets_metadata am
		JOIN metadata m ON m.metadata_id = am.metadata_id
		WHERE m.metadata_key = ? AND ` + cond + `)`, []interface{}{key, value}, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := values[:0:0]
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

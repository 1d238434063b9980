// Package table holds the in-memory columnar tables the mapping engine works on.
//
// Tables are loaded once (CSV, TSV, or XLSX) and never mutated afterwards.
// Each column carries an inferred Kind so that comparisons never depend on
// runtime type coercion, and a ColumnProfile snapshot taken at load time
// feeds relationship discovery.
package table

// Package pagination maps the record commands' paging and sorting flags onto
// the API's $$FIRST, $$LIMIT and <field>_Sort search parameters.
//
// Two modes are supported and are mutually exclusive:
//   - Offset-based: --limit and --offset
//   - Page-based: --page and --page-size
package pagination

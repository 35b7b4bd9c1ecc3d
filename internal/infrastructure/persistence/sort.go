package persistence

import (
	"strings"
)

// ValidateSortOrder normalizes a direction to ASC or DESC, defaulting to DESC
func ValidateSortOrder(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "asc") {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField when the whitelist allows it, defaultField otherwise
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// OrderClause builds an ORDER BY expression from user input. Only whitelisted
// columns reach SQL; ties break on id so pages are stable.
func OrderClause(sortField, orderDir string, allowedFields map[string]bool, defaultField string) string {
	field := ValidateSortField(sortField, allowedFields, defaultField)
	dir := ValidateSortOrder(orderDir)
	if field == "id" {
		return "id " + dir
	}
	return field + " " + dir + ", id " + dir
}

// ProductSortFields are the columns product listings may sort by
var ProductSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"title":      true,
	"price":      true,
	"stock":      true,
}

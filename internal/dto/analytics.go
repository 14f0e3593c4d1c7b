package dto

// ExportQuery selects the export format and the listing filters.
type ExportQuery struct {
	IssueListQuery
	Format string `form:"format"`
}

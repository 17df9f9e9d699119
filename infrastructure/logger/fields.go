package logger

// Field keys shared by the restock jobs.
const (
	KeyJob       = "job"
	KeyRunID     = "run_id"
	KeyProductID = "product_id"
	KeyURL       = "url"
	KeyStage     = "stage"
)

// Job names the job a log line belongs to.
func Job(name string) Field {
	return String(KeyJob, name)
}

// RunID identifies one job run.
func RunID(id string) Field {
	return String(KeyRunID, id)
}

// ProductID is the external catalog identifier of a product.
func ProductID(id int64) Field {
	return Int64(KeyProductID, id)
}

// URL is a page URL.
func URL(u string) Field {
	return String(KeyURL, u)
}

// Stage names a pipeline stage.
func Stage(name string) Field {
	return String(KeyStage, name)
}

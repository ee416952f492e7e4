package models

// Service is a named capability. The same vocabulary is shared by project
// requirements and vendor capabilities; matching is defined on service
// identity, never on text similarity.
type Service struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

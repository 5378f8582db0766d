package validation

// SearchRequestSchema accepts both the API field names and the wizard's
// original ones (emirate, carMake, issue). Emptiness is checked by the
// orchestrator so that it can report InvalidParameters itself.
const SearchRequestSchema = `{
  "type": "object",
  "properties": {
    "region":      {"type": "string", "maxLength": 100},
    "emirate":     {"type": "string", "maxLength": 100},
    "vehicleMake": {"type": "string", "maxLength": 100},
    "carMake":     {"type": "string", "maxLength": 100},
    "issueText":   {"type": "string", "maxLength": 2000},
    "issue":       {"type": "string", "maxLength": 2000}
  }
}`

const DiagnosisRequestSchema = `{
  "type": "object",
  "required": ["carMake", "carModel", "carYear", "issueDescription"],
  "properties": {
    "carMake":          {"type": "string", "minLength": 1, "maxLength": 100},
    "carModel":         {"type": "string", "minLength": 1, "maxLength": 100},
    "carYear":          {"type": ["string", "integer"]},
    "issueDescription": {"type": "string", "minLength": 1, "maxLength": 4000},
    "language":         {"type": "string", "enum": ["en", "ar"]}
  }
}`

var (
	SearchRequest    = MustCompile(SearchRequestSchema)
	DiagnosisRequest = MustCompile(DiagnosisRequestSchema)
)

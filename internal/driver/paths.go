package driver

const (
	DefaultBaseURL = "https://api.hubapi.com"

	// Path templates are filled with url.PathEscape'd segments.
	ObjectsPath      = "/crm/v3/objects/%s"
	ObjectPath       = "/crm/v3/objects/%s/%s"
	LabelsPath       = "/crm/v4/associations/%s/%s/labels"
	AssociationsPath = "/crm/v4/objects/%s/%s/associations/%s"
	AssociationPath  = "/crm/v4/objects/%s/%s/associations/%s/%s"
	BatchCreatePath  = "/crm/v4/associations/%s/%s/batch/create"
)

const (
	OpListRecords        = "list_records"
	OpGetRecord          = "get_record"
	OpCreateRecord       = "create_record"
	OpGetTypes           = "get_relationship_types"
	OpListRelationships  = "list_relationships"
	OpDeleteRelationship = "delete_relationship"
	OpPutRelationship    = "put_relationship"
	OpBatchCreate        = "batch_create_relationships"
)

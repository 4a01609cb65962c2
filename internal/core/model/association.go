package model

type AssociationCategory string

const (
	CategoryUserDefined    AssociationCategory = "USER_DEFINED"
	CategoryHubSpotDefined AssociationCategory = "HUBSPOT_DEFINED"
)

// DefaultTypeID is used whenever the schema lookup yields nothing usable.
const DefaultTypeID = 1

// TypeDescriptor is one label registered on a schema edge between two
// object categories.
type TypeDescriptor struct {
	Category AssociationCategory `json:"category"`
	TypeID   int                 `json:"typeId"`
	Label    string              `json:"label,omitempty"`
}

// AssociationSpec is the type tag attached to a relationship on write.
type AssociationSpec struct {
	Category AssociationCategory `json:"associationCategory"`
	TypeID   int                 `json:"associationTypeId"`
}

type Relationship struct {
	SubjectID string
	ObjectID  string
	Types     []TypeDescriptor
}

// RelationshipInput is one entry of a bulk create.
type RelationshipInput struct {
	SubjectID string
	ObjectID  string
	Spec      AssociationSpec
}

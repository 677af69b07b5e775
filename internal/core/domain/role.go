package domain

// Role is an independent collection; agents reference roles by id only and a
// role may be deleted while agents still point at it.
type Role struct {
	ID    string `json:"id" bson:"_id"`
	Name  string `json:"name" bson:"name"`
	Color string `json:"color" bson:"color"`
}

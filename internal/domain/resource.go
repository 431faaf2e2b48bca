package domain

type FieldKind int

const (
	FieldString FieldKind = iota
	FieldInt
)

// FieldSpec declares one mutable field of a resource collection.
// MaxLen applies to string fields, Min/Max to int fields.
type FieldSpec struct {
	Name     string
	Kind     FieldKind
	Required bool
	MaxLen   int
	Min      int
	Max      int
}

// ResourceType describes a uniformly-typed collection exposed over CRUD.
// Fields is the complete allow-list of mutable columns; id and created_at
// are store-managed and never appear here.
type ResourceType struct {
	Name     string
	Singular string
	Table    string
	Fields   []FieldSpec
}

func (rt ResourceType) Field(name string) (FieldSpec, bool) {
	for _, f := range rt.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

var Reviews = ResourceType{
	Name:     "reviews",
	Singular: "review",
	Table:    "reviews",
	Fields: []FieldSpec{
		{Name: "name", Kind: FieldString, Required: true, MaxLen: 120},
		{Name: "role", Kind: FieldString, Required: true, MaxLen: 120},
		{Name: "text", Kind: FieldString, Required: true, MaxLen: 2000},
		{Name: "rating", Kind: FieldInt, Required: true, Min: 1, Max: 5},
	},
}

var Projects = ResourceType{
	Name:     "projects",
	Singular: "project",
	Table:    "projects",
	Fields: []FieldSpec{
		{Name: "title", Kind: FieldString, Required: true, MaxLen: 160},
		{Name: "description", Kind: FieldString, Required: true, MaxLen: 4000},
		{Name: "tech", Kind: FieldString, Required: true, MaxLen: 400},
		{Name: "link", Kind: FieldString, MaxLen: 300},
		{Name: "image", Kind: FieldString, MaxLen: 300},
	},
}

var Skills = ResourceType{
	Name:     "skills",
	Singular: "skill",
	Table:    "skills",
	Fields: []FieldSpec{
		{Name: "name", Kind: FieldString, Required: true, MaxLen: 80},
		{Name: "category", Kind: FieldString, Required: true, MaxLen: 80},
		{Name: "level", Kind: FieldInt, Required: true, Min: 0, Max: 100},
	},
}

var Socials = ResourceType{
	Name:     "socials",
	Singular: "social",
	Table:    "socials",
	Fields: []FieldSpec{
		{Name: "platform", Kind: FieldString, Required: true, MaxLen: 80},
		{Name: "url", Kind: FieldString, Required: true, MaxLen: 300},
		{Name: "icon", Kind: FieldString, MaxLen: 120},
	},
}

func Resources() []ResourceType {
	return []ResourceType{Reviews, Projects, Skills, Socials}
}

func ResourceByName(name string) (ResourceType, bool) {
	for _, rt := range Resources() {
		if rt.Name == name {
			return rt, true
		}
	}
	return ResourceType{}, false
}

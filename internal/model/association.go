package model

// Association represents a student association presenting one or more
// performances during the festival.  The name doubles as the primary key.
//
// Fields:
//  Name  – unique association name (primary key).
//  Image – optional path of the association logo relative to the media root.
type Association struct {
    Name  string  // associations.name
    Image *string // associations.image (nullable)
}

// HasImage reports whether a logo has been configured for the association.
func (a Association) HasImage() bool {
    return a.Image != nil && *a.Image != ""
}

package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// APIBasePath is the versioned REST root of OpenProject.
const APIBasePath = "/api/v3"

// NamedResource is the minimal shape of an embedded related resource.
type NamedResource struct {
	ID      int    `json:"id"`
	Name    string `json:"name,omitempty"`
	Subject string `json:"subject,omitempty"`
}

// nameOr returns the resource name, or def when the resource is absent.
func (r *NamedResource) nameOr(def string) string {
	if r == nil || r.Name == "" {
		return def
	}
	return r.Name
}

// Root is the API root resource.
type Root struct {
	InstanceName string `json:"instanceName"`
	CoreVersion  string `json:"coreVersion"`
}

// Project is an OpenProject project.
type Project struct {
	ID          int          `json:"id"`
	Identifier  string       `json:"identifier"`
	Name        string       `json:"name"`
	Active      bool         `json:"active"`
	Public      bool         `json:"public"`
	Description *Formattable `json:"description,omitempty"`
	Links       Links        `json:"_links,omitempty"`
}

// ResourceID implements Identified.
func (p Project) ResourceID() int { return p.ID }

// DescriptionText returns the raw description or "".
func (p Project) DescriptionText() string {
	if p.Description == nil {
		return ""
	}
	return p.Description.Raw
}

// WorkPackageEmbedded holds the sub-resources the service may expand.
type WorkPackageEmbedded struct {
	Status   *NamedResource `json:"status,omitempty"`
	Type     *NamedResource `json:"type,omitempty"`
	Priority *NamedResource `json:"priority,omitempty"`
	Assignee *NamedResource `json:"assignee,omitempty"`
	Project  *NamedResource `json:"project,omitempty"`
	Parent   *NamedResource `json:"parent,omitempty"`
}

// WorkPackage is an OpenProject work package.
type WorkPackage struct {
	ID             int                 `json:"id"`
	Subject        string              `json:"subject"`
	Description    *Formattable        `json:"description,omitempty"`
	LockVersion    int                 `json:"lockVersion"`
	PercentageDone *int                `json:"percentageDone,omitempty"`
	StartDate      string              `json:"startDate,omitempty"`
	DueDate        string              `json:"dueDate,omitempty"`
	Embedded       WorkPackageEmbedded `json:"_embedded"`
	Links          Links               `json:"_links,omitempty"`
}

// ResourceID implements Identified.
func (w WorkPackage) ResourceID() int { return w.ID }

// StatusName returns the embedded status name, the status link title, or
// DefaultStatusName.
func (w WorkPackage) StatusName() string {
	if w.Embedded.Status != nil {
		return w.Embedded.Status.nameOr(DefaultStatusName)
	}
	if title := w.Links.Get("status").Title; title != "" {
		return title
	}
	return DefaultStatusName
}

// TypeName returns the type name or NotAvailable.
func (w WorkPackage) TypeName() string {
	if w.Embedded.Type != nil {
		return w.Embedded.Type.nameOr(NotAvailable)
	}
	if title := w.Links.Get("type").Title; title != "" {
		return title
	}
	return NotAvailable
}

// PriorityName returns the priority name, the priority link title, or ""
// when no priority is known.
func (w WorkPackage) PriorityName() string {
	if w.Embedded.Priority != nil {
		return w.Embedded.Priority.nameOr(NotAvailable)
	}
	return w.Links.Get("priority").Title
}

// AssigneeName returns the assignee name, the assignee link title, or ""
// when unassigned.
func (w WorkPackage) AssigneeName() string {
	if w.Embedded.Assignee != nil {
		return w.Embedded.Assignee.nameOr(UnassignedName)
	}
	return w.Links.Get("assignee").Title
}

// ProjectName returns the project name, the project link title, or "".
func (w WorkPackage) ProjectName() string {
	if w.Embedded.Project != nil {
		return w.Embedded.Project.nameOr(NotAvailable)
	}
	return w.Links.Get("project").Title
}

// DescriptionText returns the raw description or "".
func (w WorkPackage) DescriptionText() string {
	if w.Description == nil {
		return ""
	}
	return w.Description.Raw
}

// ParentID returns the parent work package id, or 0 for a top-level one.
func (w WorkPackage) ParentID() int {
	if w.Embedded.Parent != nil && w.Embedded.Parent.ID != 0 {
		return w.Embedded.Parent.ID
	}
	return w.Links.Get("parent").ID()
}

// Type is a work package type.
type Type struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color,omitempty"`
	Position    int    `json:"position,omitempty"`
	IsMilestone bool   `json:"isMilestone"`
}

// ResourceID implements Identified.
func (t Type) ResourceID() int { return t.ID }

// User is an OpenProject user principal.
type User struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Login     string `json:"login,omitempty"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Admin     bool   `json:"admin"`
	Status    string `json:"status,omitempty"`
}

// ResourceID implements Identified.
func (u User) ResourceID() int { return u.ID }

// Status is a work package status.
type Status struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	IsClosed  bool   `json:"isClosed"`
	IsDefault bool   `json:"isDefault"`
	Position  int    `json:"position,omitempty"`
}

// ResourceID implements Identified.
func (s Status) ResourceID() int { return s.ID }

// Priority is a work package priority.
type Priority struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Position  int    `json:"position,omitempty"`
	IsDefault bool   `json:"isDefault"`
	IsActive  bool   `json:"isActive"`
}

// ResourceID implements Identified.
func (p Priority) ResourceID() int { return p.ID }

// Version is a project version (milestone).
type Version struct {
	ID          int          `json:"id"`
	Name        string       `json:"name"`
	Description *Formattable `json:"description,omitempty"`
	StartDate   string       `json:"startDate,omitempty"`
	EndDate     string       `json:"endDate,omitempty"`
	Status      string       `json:"status,omitempty"`
	Sharing     string       `json:"sharing,omitempty"`
	Links       Links        `json:"_links,omitempty"`
}

// ResourceID implements Identified.
func (v Version) ResourceID() int { return v.ID }

// MembershipEmbedded holds the expanded principal, project and roles.
type MembershipEmbedded struct {
	Principal *NamedResource  `json:"principal,omitempty"`
	Project   *NamedResource  `json:"project,omitempty"`
	Roles     []NamedResource `json:"roles,omitempty"`
}

// Membership binds a principal to a project with a set of roles.
type Membership struct {
	ID       int                `json:"id"`
	Embedded MembershipEmbedded `json:"_embedded"`
	Links    Links              `json:"_links,omitempty"`
}

// ResourceID implements Identified.
func (m Membership) ResourceID() int { return m.ID }

// PrincipalName returns the principal name or NotAvailable.
func (m Membership) PrincipalName() string {
	if m.Embedded.Principal != nil {
		return m.Embedded.Principal.nameOr(NotAvailable)
	}
	if title := m.Links.Get("principal").Title; title != "" {
		return title
	}
	return NotAvailable
}

// ProjectName returns the project name or NotAvailable.
func (m Membership) ProjectName() string {
	if m.Embedded.Project != nil {
		return m.Embedded.Project.nameOr(NotAvailable)
	}
	if title := m.Links.Get("project").Title; title != "" {
		return title
	}
	return NotAvailable
}

// RoleNames returns the names of the membership's roles.
func (m Membership) RoleNames() []string {
	names := make([]string, 0, len(m.Embedded.Roles))
	for i := range m.Embedded.Roles {
		names = append(names, m.Embedded.Roles[i].nameOr(NotAvailable))
	}
	if len(names) == 0 {
		for _, l := range m.Links.List("roles") {
			if l.Title != "" {
				names = append(names, l.Title)
			} else {
				names = append(names, NotAvailable)
			}
		}
	}
	return names
}

// Role is a project role.
type Role struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ResourceID implements Identified.
func (r Role) ResourceID() int { return r.ID }

// TimeEntry is logged time on a work package.
type TimeEntry struct {
	ID      int          `json:"id"`
	Hours   string       `json:"hours"`
	SpentOn string       `json:"spentOn,omitempty"`
	Comment *Formattable `json:"comment,omitempty"`
	Links   Links        `json:"_links,omitempty"`
}

// ResourceID implements Identified.
func (t TimeEntry) ResourceID() int { return t.ID }

// CommentText returns the raw comment or "".
func (t TimeEntry) CommentText() string {
	if t.Comment == nil {
		return ""
	}
	return t.Comment.Raw
}

// TimeEntryActivity is an activity time can be booked against.
type TimeEntryActivity struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Position int    `json:"position,omitempty"`
	Default  bool   `json:"default"`
}

// ResourceID implements Identified.
func (a TimeEntryActivity) ResourceID() int { return a.ID }

// Relation types accepted by the service.
const (
	RelationBlocks     = "blocks"
	RelationFollows    = "follows"
	RelationPrecedes   = "precedes"
	RelationRelates    = "relates"
	RelationDuplicates = "duplicates"
	RelationIncludes   = "includes"
	RelationRequires   = "requires"
	RelationPartOf     = "partof"
)

// RelationTypes lists every relation type in display order.
var RelationTypes = []string{
	RelationBlocks, RelationFollows, RelationPrecedes, RelationRelates,
	RelationDuplicates, RelationIncludes, RelationRequires, RelationPartOf,
}

// RelationEmbedded holds the expanded ends of a relation.
type RelationEmbedded struct {
	From *NamedResource `json:"from,omitempty"`
	To   *NamedResource `json:"to,omitempty"`
}

// Relation is a directed typed edge between two work packages.
type Relation struct {
	ID          int              `json:"id"`
	Name        string           `json:"name,omitempty"`
	Type        string           `json:"type"`
	ReverseType string           `json:"reverseType,omitempty"`
	Lag         *int             `json:"lag,omitempty"`
	Description *string          `json:"description,omitempty"`
	Embedded    RelationEmbedded `json:"_embedded"`
	Links       Links            `json:"_links,omitempty"`
}

// ResourceID implements Identified.
func (r Relation) ResourceID() int { return r.ID }

// FromID returns the source work package id, or 0 if unknown.
func (r Relation) FromID() int {
	if r.Embedded.From != nil && r.Embedded.From.ID != 0 {
		return r.Embedded.From.ID
	}
	return r.Links.Get("from").ID()
}

// ToID returns the target work package id, or 0 if unknown.
func (r Relation) ToID() int {
	if r.Embedded.To != nil && r.Embedded.To.ID != 0 {
		return r.Embedded.To.ID
	}
	return r.Links.Get("to").ID()
}

// FromSubject returns the source subject or NotAvailable.
func (r Relation) FromSubject() string {
	if r.Embedded.From != nil && r.Embedded.From.Subject != "" {
		return r.Embedded.From.Subject
	}
	if title := r.Links.Get("from").Title; title != "" {
		return title
	}
	return NotAvailable
}

// ToSubject returns the target subject or NotAvailable.
func (r Relation) ToSubject() string {
	if r.Embedded.To != nil && r.Embedded.To.Subject != "" {
		return r.Embedded.To.Subject
	}
	if title := r.Links.Get("to").Title; title != "" {
		return title
	}
	return NotAvailable
}

// FormatHours renders hours as the ISO 8601 duration OpenProject expects.
func FormatHours(hours float64) string {
	return "PT" + strconv.FormatFloat(hours, 'f', -1, 64) + "H"
}

var durationPattern = regexp.MustCompile(`^P(?:(\d+(?:\.\d+)?)D)?(?:T(?:(\d+(?:\.\d+)?)H)?(?:(\d+(?:\.\d+)?)M)?(?:(\d+(?:\.\d+)?)S)?)?$`)

// ParseHours converts an ISO 8601 duration such as PT2H30M to hours.
func ParseHours(duration string) (float64, error) {
	trimmed := strings.TrimSpace(duration)
	m := durationPattern.FindStringSubmatch(trimmed)
	if m == nil || trimmed == "P" || trimmed == "PT" {
		return 0, fmt.Errorf("invalid duration %q", duration)
	}
	var total float64
	units := []float64{24, 1, 1.0 / 60, 1.0 / 3600}
	for i, unit := range units {
		if m[i+1] == "" {
			continue
		}
		v, err := strconv.ParseFloat(m[i+1], 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", duration, err)
		}
		total += v * unit
	}
	return total, nil
}

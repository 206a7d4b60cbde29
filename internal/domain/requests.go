package domain

// Request payloads. Create types carry required fields by value; patch
// types use pointers so Body emits only what the caller supplied.

type linkSet map[string]any

func (l linkSet) set(rel, resource string, id int) {
	l[rel] = RefLink(resource, id)
}

func withLinks(body map[string]any, links linkSet) map[string]any {
	if len(links) > 0 {
		body["_links"] = map[string]any(links)
	}
	return body
}

// ProjectStatusLink builds the link to a project status code such as on_track.
func ProjectStatusLink(code string) Link {
	return Link{Href: APIBasePath + "/project_statuses/" + code}
}

// ProjectCreate is the input for creating a project.
type ProjectCreate struct {
	Name        string
	Identifier  string
	Description string
	Public      bool
	Status      string
	ParentID    int
}

// Body renders the request payload.
func (p ProjectCreate) Body() map[string]any {
	body := map[string]any{
		"name":       p.Name,
		"identifier": p.Identifier,
		"public":     p.Public,
	}
	if p.Description != "" {
		body["description"] = PlainText(p.Description)
	}
	links := linkSet{}
	if p.Status != "" {
		links["status"] = ProjectStatusLink(p.Status)
	}
	if p.ParentID != 0 {
		links.set("parent", "projects", p.ParentID)
	}
	return withLinks(body, links)
}

// ProjectPatch is a partial project update.
type ProjectPatch struct {
	Name        *string
	Identifier  *string
	Description *string
	Public      *bool
	Status      *string
	ParentID    *int
}

// Body renders only the supplied fields.
func (p ProjectPatch) Body() map[string]any {
	body := map[string]any{}
	if p.Name != nil {
		body["name"] = *p.Name
	}
	if p.Identifier != nil {
		body["identifier"] = *p.Identifier
	}
	if p.Description != nil {
		body["description"] = PlainText(*p.Description)
	}
	if p.Public != nil {
		body["public"] = *p.Public
	}
	links := linkSet{}
	if p.Status != nil {
		links["status"] = ProjectStatusLink(*p.Status)
	}
	if p.ParentID != nil {
		links.set("parent", "projects", *p.ParentID)
	}
	return withLinks(body, links)
}

// WorkPackageCreate is the input for creating a work package. Project and
// Type are linked resources on creation, hence the names without an ID
// suffix; updates take flat ids instead.
type WorkPackageCreate struct {
	Project     int
	Subject     string
	Type        int
	Description string
	PriorityID  int
	AssigneeID  int
}

// Body renders the request payload with relationship links.
func (w WorkPackageCreate) Body() map[string]any {
	body := map[string]any{
		"subject": w.Subject,
	}
	if w.Description != "" {
		body["description"] = PlainText(w.Description)
	}
	links := linkSet{}
	links.set("project", "projects", w.Project)
	links.set("type", "types", w.Type)
	if w.PriorityID != 0 {
		links.set("priority", "priorities", w.PriorityID)
	}
	if w.AssigneeID != 0 {
		links.set("assignee", "users", w.AssigneeID)
	}
	return withLinks(body, links)
}

// WorkPackagePatch is a partial work package update.
type WorkPackagePatch struct {
	Subject        *string
	Description    *string
	TypeID         *int
	StatusID       *int
	PriorityID     *int
	AssigneeID     *int
	PercentageDone *int
}

// IsEmpty reports whether no field is set.
func (w WorkPackagePatch) IsEmpty() bool {
	return len(w.Body()) == 0
}

// Body renders only the supplied fields. Flat ids become links.
func (w WorkPackagePatch) Body() map[string]any {
	body := map[string]any{}
	if w.Subject != nil {
		body["subject"] = *w.Subject
	}
	if w.Description != nil {
		body["description"] = PlainText(*w.Description)
	}
	if w.PercentageDone != nil {
		body["percentageDone"] = *w.PercentageDone
	}
	links := linkSet{}
	if w.TypeID != nil {
		links.set("type", "types", *w.TypeID)
	}
	if w.StatusID != nil {
		links.set("status", "statuses", *w.StatusID)
	}
	if w.PriorityID != nil {
		links.set("priority", "priorities", *w.PriorityID)
	}
	if w.AssigneeID != nil {
		links.set("assignee", "users", *w.AssigneeID)
	}
	return withLinks(body, links)
}

// ParentBody renders a parent change. parentID 0 clears the parent.
func ParentBody(parentID int) map[string]any {
	var parent any = map[string]any{"href": nil}
	if parentID != 0 {
		parent = RefLink("work_packages", parentID)
	}
	return map[string]any{
		"_links": map[string]any{"parent": parent},
	}
}

// MembershipCreate is the input for creating a membership. Exactly one of
// UserID and GroupID is required; when both are set the user wins.
type MembershipCreate struct {
	ProjectID int
	UserID    int
	GroupID   int
	RoleIDs   []int
	RoleID    int
}

// Principal returns the principal resource collection and id.
func (m MembershipCreate) Principal() (string, int, error) {
	switch {
	case m.UserID != 0:
		return "users", m.UserID, nil
	case m.GroupID != 0:
		return "groups", m.GroupID, nil
	default:
		return "", 0, NewPreconditionError("either user_id or group_id must be provided")
	}
}

// Validate checks the client-side preconditions.
func (m MembershipCreate) Validate() error {
	if m.ProjectID == 0 {
		return NewPreconditionError("project_id is required")
	}
	_, _, err := m.Principal()
	return err
}

// Body renders the request payload. Validate must pass first.
func (m MembershipCreate) Body() map[string]any {
	links := linkSet{}
	links.set("project", "projects", m.ProjectID)
	if resource, id, err := m.Principal(); err == nil {
		links.set("principal", resource, id)
	}
	if roles := MergeRoleIDs(m.RoleIDs, m.RoleID); len(roles) > 0 {
		links["roles"] = roleLinks(roles)
	}
	return withLinks(map[string]any{}, links)
}

// MembershipPatch is a partial membership update.
type MembershipPatch struct {
	RoleIDs []int
	RoleID  int
}

// Body renders only the supplied fields.
func (m MembershipPatch) Body() map[string]any {
	links := linkSet{}
	if roles := MergeRoleIDs(m.RoleIDs, m.RoleID); len(roles) > 0 {
		links["roles"] = roleLinks(roles)
	}
	return withLinks(map[string]any{}, links)
}

// MergeRoleIDs combines role_ids and role_id: role_ids first in order,
// then role_id if not already present. Zero and duplicate ids are dropped.
func MergeRoleIDs(roleIDs []int, roleID int) []int {
	seen := make(map[int]bool, len(roleIDs)+1)
	merged := make([]int, 0, len(roleIDs)+1)
	for _, id := range append(append([]int{}, roleIDs...), roleID) {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		merged = append(merged, id)
	}
	return merged
}

func roleLinks(ids []int) []Link {
	links := make([]Link, 0, len(ids))
	for _, id := range ids {
		links = append(links, RefLink("roles", id))
	}
	return links
}

// TimeEntryCreate is the input for logging time.
type TimeEntryCreate struct {
	WorkPackageID int
	Hours         float64
	SpentOn       string
	Comment       string
	ActivityID    int
}

// Body renders the request payload.
func (t TimeEntryCreate) Body() map[string]any {
	body := map[string]any{
		"hours":   FormatHours(t.Hours),
		"spentOn": t.SpentOn,
	}
	if t.Comment != "" {
		body["comment"] = PlainText(t.Comment)
	}
	links := linkSet{}
	links.set("workPackage", "work_packages", t.WorkPackageID)
	if t.ActivityID != 0 {
		links.set("activity", "time_entries/activities", t.ActivityID)
	}
	return withLinks(body, links)
}

// TimeEntryPatch is a partial time entry update.
type TimeEntryPatch struct {
	Hours      *float64
	SpentOn    *string
	Comment    *string
	ActivityID *int
}

// Body renders only the supplied fields.
func (t TimeEntryPatch) Body() map[string]any {
	body := map[string]any{}
	if t.Hours != nil {
		body["hours"] = FormatHours(*t.Hours)
	}
	if t.SpentOn != nil {
		body["spentOn"] = *t.SpentOn
	}
	if t.Comment != nil {
		body["comment"] = PlainText(*t.Comment)
	}
	links := linkSet{}
	if t.ActivityID != nil {
		links.set("activity", "time_entries/activities", *t.ActivityID)
	}
	return withLinks(body, links)
}

// VersionCreate is the input for creating a version in a project.
type VersionCreate struct {
	ProjectID   int
	Name        string
	Description string
	StartDate   string
	EndDate     string
	Status      string
}

// Body renders the request payload.
func (v VersionCreate) Body() map[string]any {
	body := map[string]any{"name": v.Name}
	if v.Description != "" {
		body["description"] = PlainText(v.Description)
	}
	if v.StartDate != "" {
		body["startDate"] = v.StartDate
	}
	if v.EndDate != "" {
		body["endDate"] = v.EndDate
	}
	if v.Status != "" {
		body["status"] = v.Status
	}
	links := linkSet{}
	links.set("definingProject", "projects", v.ProjectID)
	return withLinks(body, links)
}

// RelationCreate is the input for a new relation between work packages.
type RelationCreate struct {
	FromID      int
	ToID        int
	Type        string
	Lag         *int
	Description string
}

// Validate rejects requests that cannot succeed remotely.
func (r RelationCreate) Validate() error {
	if r.FromID == 0 || r.ToID == 0 {
		return NewPreconditionError("from_id and to_id are required")
	}
	if r.FromID == r.ToID {
		return NewPreconditionError("a work package cannot be related to itself (from_id = to_id = %d)", r.FromID)
	}
	if r.Type == "" {
		return NewPreconditionError("relation_type is required")
	}
	return nil
}

// Body renders the request payload. The type is passed through unmodified.
func (r RelationCreate) Body() map[string]any {
	body := map[string]any{"type": r.Type}
	if r.Lag != nil {
		body["lag"] = *r.Lag
	}
	if r.Description != "" {
		body["description"] = r.Description
	}
	links := linkSet{}
	links.set("from", "work_packages", r.FromID)
	links.set("to", "work_packages", r.ToID)
	return withLinks(body, links)
}

// RelationPatch is a partial relation update.
type RelationPatch struct {
	Type        *string
	Lag         *int
	Description *string
}

// Body renders only the supplied fields.
func (r RelationPatch) Body() map[string]any {
	body := map[string]any{}
	if r.Type != nil {
		body["type"] = *r.Type
	}
	if r.Lag != nil {
		body["lag"] = *r.Lag
	}
	if r.Description != nil {
		body["description"] = *r.Description
	}
	return body
}

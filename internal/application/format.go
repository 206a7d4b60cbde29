package application

import (
	"fmt"
	"strconv"
	"strings"

	"openproject-mcp-server/internal/domain"
)

// Text rendering of adapter results. Optional fields fall back to the
// named defaults in the domain package.

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

func activeMark(active bool) string {
	if active {
		return "🟢"
	}
	return "🔴"
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func orNA(s string) string {
	if s == "" {
		return domain.NotAvailable
	}
	return s
}

func formatProjects(coll *domain.Collection[domain.Project]) string {
	if len(coll.Elements) == 0 {
		return "No projects found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📋 Projects (%d found):\n\n", len(coll.Elements))
	for _, p := range coll.Elements {
		fmt.Fprintf(&b, "%s **%s** (ID: %d)\n", activeMark(p.Active), p.Name, p.ID)
		if desc := p.DescriptionText(); desc != "" {
			fmt.Fprintf(&b, "   %s\n", truncate(desc, 100))
		}
	}
	return b.String()
}

func formatProject(p *domain.Project) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📋 **%s**\n\n", p.Name)
	fmt.Fprintf(&b, "- **ID**: %d\n", p.ID)
	fmt.Fprintf(&b, "- **Identifier**: %s\n", orNA(p.Identifier))
	status := "🔴 Archived"
	if p.Active {
		status = "🟢 Active"
	}
	fmt.Fprintf(&b, "- **Status**: %s\n", status)
	fmt.Fprintf(&b, "- **Public**: %s\n", yesNo(p.Public))
	if desc := p.DescriptionText(); desc != "" {
		fmt.Fprintf(&b, "\n**Description**:\n%s\n", desc)
	}
	return b.String()
}

func formatWorkPackages(coll *domain.Collection[domain.WorkPackage]) string {
	if len(coll.Elements) == 0 {
		return "No work packages found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📝 Work Packages (%d of %d):\n\n", len(coll.Elements), coll.Total)
	for _, wp := range coll.Elements {
		fmt.Fprintf(&b, "#%d - **%s**\n", wp.ID, wp.Subject)
		fmt.Fprintf(&b, "   Status: %s\n", wp.StatusName())
		fmt.Fprintf(&b, "   Type: %s\n", wp.TypeName())
		if assignee := wp.AssigneeName(); assignee != "" {
			fmt.Fprintf(&b, "   Assignee: %s\n", assignee)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatWorkPackage(wp *domain.WorkPackage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📝 #%d - **%s**\n\n", wp.ID, wp.Subject)
	fmt.Fprintf(&b, "- **Status**: %s\n", wp.StatusName())
	fmt.Fprintf(&b, "- **Type**: %s\n", wp.TypeName())
	if priority := wp.PriorityName(); priority != "" {
		fmt.Fprintf(&b, "- **Priority**: %s\n", priority)
	}
	if assignee := wp.AssigneeName(); assignee != "" {
		fmt.Fprintf(&b, "- **Assignee**: %s\n", assignee)
	}
	if project := wp.ProjectName(); project != "" {
		fmt.Fprintf(&b, "- **Project**: %s\n", project)
	}
	if wp.PercentageDone != nil {
		fmt.Fprintf(&b, "- **Done**: %d%%\n", *wp.PercentageDone)
	}
	if parent := wp.ParentID(); parent != 0 {
		fmt.Fprintf(&b, "- **Parent**: #%d\n", parent)
	}
	if desc := wp.DescriptionText(); desc != "" {
		fmt.Fprintf(&b, "\n**Description**:\n%s\n", desc)
	}
	return b.String()
}

func formatChildren(parentID int, children []domain.WorkPackage) string {
	if len(children) == 0 {
		return fmt.Sprintf("No children found for work package #%d.", parentID)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "👶 Children of #%d (%d found):\n\n", parentID, len(children))
	for _, wp := range children {
		fmt.Fprintf(&b, "#%d - **%s**\n", wp.ID, wp.Subject)
	}
	return b.String()
}

// formatNamed renders a list of id/name resources under a header.
func formatNamed[T any](header, empty string, items []T, name func(T) (int, string)) string {
	if len(items) == 0 {
		return empty
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d):\n\n", header, len(items))
	for _, item := range items {
		id, n := name(item)
		fmt.Fprintf(&b, "- **%s** (ID: %d)\n", n, id)
	}
	return b.String()
}

func formatUsers(coll *domain.Collection[domain.User]) string {
	if len(coll.Elements) == 0 {
		return "No users found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "👥 Users (%d found):\n\n", len(coll.Elements))
	for _, u := range coll.Elements {
		fmt.Fprintf(&b, "%s **%s** (ID: %d)\n", activeMark(u.Status == "active"), orNA(u.Name), u.ID)
		if u.Email != "" {
			fmt.Fprintf(&b, "   📧 %s\n", u.Email)
		}
	}
	return b.String()
}

func formatUser(u *domain.User) string {
	var b strings.Builder
	fmt.Fprintf(&b, "👤 **%s**\n\n", orNA(u.Name))
	fmt.Fprintf(&b, "- **ID**: %d\n", u.ID)
	fmt.Fprintf(&b, "- **Status**: %s\n", orNA(u.Status))
	if u.Email != "" {
		fmt.Fprintf(&b, "- **Email**: %s\n", u.Email)
	}
	if u.Login != "" {
		fmt.Fprintf(&b, "- **Login**: %s\n", u.Login)
	}
	return b.String()
}

func formatCurrentUser(u *domain.User) string {
	var b strings.Builder
	fmt.Fprintf(&b, "👤 Current User: **%s**\n\n", orNA(u.Name))
	fmt.Fprintf(&b, "- **ID**: %d\n", u.ID)
	fmt.Fprintf(&b, "- **Login**: %s\n", orNA(u.Login))
	fmt.Fprintf(&b, "- **Email**: %s\n", orNA(u.Email))
	fmt.Fprintf(&b, "- **Admin**: %t\n", u.Admin)
	return b.String()
}

func formatMemberships(coll *domain.Collection[domain.Membership]) string {
	if len(coll.Elements) == 0 {
		return "No memberships found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "👥 Memberships (%d found):\n\n", len(coll.Elements))
	for _, m := range coll.Elements {
		fmt.Fprintf(&b, "- **%s** in **%s** (ID: %d)\n", m.PrincipalName(), m.ProjectName(), m.ID)
		fmt.Fprintf(&b, "  Roles: %s\n", strings.Join(m.RoleNames(), ", "))
	}
	return b.String()
}

func formatMembership(m *domain.Membership) string {
	var b strings.Builder
	fmt.Fprintf(&b, "👤 **%s** in **%s**\n\n", m.PrincipalName(), m.ProjectName())
	fmt.Fprintf(&b, "- **Membership ID**: %d\n", m.ID)
	fmt.Fprintf(&b, "- **Roles**: %s\n", strings.Join(m.RoleNames(), ", "))
	return b.String()
}

func formatActivities(coll *domain.Collection[domain.TimeEntryActivity]) string {
	if len(coll.Elements) == 0 {
		return "No time entry activities found"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "⏱️ **Time Entry Activities** (Total: %d)\n\n", coll.Total)
	for _, a := range coll.Elements {
		fmt.Fprintf(&b, "- **%s** (ID: %d)\n", a.Name, a.ID)
		if a.Default {
			b.WriteString("  ⭐ Default activity\n")
		}
	}
	return b.String()
}

// hoursText renders an ISO duration as a decimal hour count. Unparseable
// values are shown as received.
func hoursText(iso string) string {
	if iso == "" {
		return "0"
	}
	hours, err := domain.ParseHours(iso)
	if err != nil {
		return iso
	}
	return strconv.FormatFloat(hours, 'f', -1, 64)
}

func formatTimeEntries(coll *domain.Collection[domain.TimeEntry]) string {
	if len(coll.Elements) == 0 {
		return "No time entries found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "⏱️  Time Entries (%d found):\n\n", len(coll.Elements))
	for _, te := range coll.Elements {
		fmt.Fprintf(&b, "- **%sh** on %s (ID: %d)\n", hoursText(te.Hours), orNA(te.SpentOn), te.ID)
		if comment := te.CommentText(); comment != "" {
			fmt.Fprintf(&b, "  %s\n", truncate(comment, 50))
		}
	}
	return b.String()
}

func formatVersions(coll *domain.Collection[domain.Version]) string {
	if len(coll.Elements) == 0 {
		return "No versions found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📦 Versions (%d found):\n\n", len(coll.Elements))
	for _, v := range coll.Elements {
		fmt.Fprintf(&b, "- **%s** (ID: %d)\n", v.Name, v.ID)
		if v.StartDate != "" || v.EndDate != "" {
			fmt.Fprintf(&b, "  %s → %s\n", v.StartDate, v.EndDate)
		}
	}
	return b.String()
}

func relationEnd(id int) string {
	if id == 0 {
		return domain.NotAvailable
	}
	return strconv.Itoa(id)
}

func formatRelations(coll *domain.Collection[domain.Relation]) string {
	if len(coll.Elements) == 0 {
		return "No relations found."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "🔗 Work Package Relations (%d found):\n\n", len(coll.Elements))
	for _, r := range coll.Elements {
		fmt.Fprintf(&b, "#%s %s #%s (ID: %d)\n", relationEnd(r.FromID()), orNA(r.Type), relationEnd(r.ToID()), r.ID)
	}
	return b.String()
}

func formatRelation(r *domain.Relation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔗 Relation #%d\n\n", r.ID)
	fmt.Fprintf(&b, "- **Type**: %s\n", orNA(r.Type))
	fmt.Fprintf(&b, "- **From**: #%s - %s\n", relationEnd(r.FromID()), r.FromSubject())
	fmt.Fprintf(&b, "- **To**: #%s - %s\n", relationEnd(r.ToID()), r.ToSubject())
	if r.Lag != nil && *r.Lag != 0 {
		fmt.Fprintf(&b, "- **Lag**: %d days\n", *r.Lag)
	}
	if r.Description != nil && *r.Description != "" {
		fmt.Fprintf(&b, "- **Description**: %s\n", *r.Description)
	}
	return b.String()
}

func formatRoot(root *domain.Root) string {
	if root.InstanceName == "" {
		return "✅ Connection successful!"
	}
	version := root.CoreVersion
	if version == "" {
		version = domain.DefaultStatusName
	}
	return fmt.Sprintf("✅ Connected to: %s\nCore Version: %s", root.InstanceName, version)
}

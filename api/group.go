package api

import (
	"ledger/database"
	"ledger/middleware"
	"ledger/models"

	"github.com/gin-gonic/gin"
)

// GroupHandler group management
type GroupHandler struct {
	verifier *middleware.Verifier
}

// NewGroupHandler creates the group handler
func NewGroupHandler(verifier *middleware.Verifier) *GroupHandler {
	return &GroupHandler{verifier: verifier}
}

// CreateGroupRequest new group body. The caller always joins the group.
type CreateGroupRequest struct {
	Name         *string   `json:"name" example:"household"`
	MemberEmails *[]string `json:"memberEmails"`
}

// AddMembersRequest add members body
type AddMembersRequest struct {
	Emails *[]string `json:"emails"`
}

// GroupChange a group together with the addresses that could not be added
type GroupChange struct {
	Group           *models.Group `json:"group,omitempty"`
	AlreadyInGroup  []string      `json:"alreadyInGroup"`
	MembersNotFound []string      `json:"membersNotFound"`
}

// CreateGroup creates a group with the caller and the given members
// @Summary Create a group
// @Description Addresses of unknown users or of users already in a group are reported and skipped.
// @Description At least one member besides the caller must be valid.
// @Tags groups
// @Accept json
// @Produce json
// @Param request body CreateGroupRequest true "Group"
// @Success 201 {object} Response{data=GroupChange}
// @Failure 400 {object} Response
// @Failure 401 {object} Response
// @Router /api/groups [post]
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	var req CreateGroupRequest
	if !bindJSON(c, &req) {
		return
	}
	if !requireFields(c, field{"name", req.Name}) {
		return
	}
	var emails []string
	if req.MemberEmails != nil {
		emails = *req.MemberEmails
	}
	if !requireList(c, "memberEmails", emails, req.MemberEmails != nil) {
		return
	}
	if bad := firstInvalidEmail(emails); bad != "" {
		Fail(c, KindInvalidEmailFormat, "Invalid email format: "+bad)
		return
	}
	if !authorize(c, h.verifier, middleware.Authenticated()) {
		return
	}
	caller := middleware.GetCurrentClaims(c)
	callerEmail := normalizeEmail(caller.Email)

	var count int64
	if err := database.DB.Model(&models.Group{}).Where("name = ?", *req.Name).Count(&count).Error; err != nil {
		FailInternal(c, err, "Failed to check group")
		return
	}
	if count > 0 {
		Fail(c, KindAlreadyExists, "Group already exists")
		return
	}
	if err := database.DB.Model(&models.GroupMember{}).Where("email = ?", callerEmail).Count(&count).Error; err != nil {
		FailInternal(c, err, "Failed to check group membership")
		return
	}
	if count > 0 {
		Fail(c, KindAlreadyExists, "User already belongs to a group")
		return
	}

	others := make([]string, 0, len(emails))
	for _, e := range uniqueStrings(normalizeAll(emails)) {
		if e != callerEmail {
			others = append(others, e)
		}
	}

	valid, change, err := classifyMembers(append([]string{callerEmail}, others...))
	if err != nil {
		FailInternal(c, err, "Failed to check members")
		return
	}
	if len(valid) == 0 || valid[0].Email != callerEmail {
		Fail(c, KindNotFound, "User not found")
		return
	}
	if len(valid) < 2 {
		FailWithData(c, KindInvalidParameter, "No valid members", change)
		return
	}

	group := models.Group{Name: *req.Name, Members: valid}
	if err := database.DB.Create(&group).Error; err != nil {
		FailInternal(c, err, "Failed to create group")
		return
	}

	change.Group = &group
	middleware.Logger(c).WithField("group", group.Name).Info("group created")
	Created(c, "Group created", change)
}

// ListGroups returns every group
// @Summary List groups
// @Tags groups
// @Produce json
// @Success 200 {object} Response{data=[]models.Group}
// @Failure 401 {object} Response
// @Router /api/groups [get]
func (h *GroupHandler) ListGroups(c *gin.Context) {
	if !authorize(c, h.verifier, middleware.Admin()) {
		return
	}

	groups := []models.Group{}
	if err := database.DB.Preload("Members", orderByID).Order("id").Find(&groups).Error; err != nil {
		FailInternal(c, err, "Failed to load groups")
		return
	}
	Success(c, groups)
}

// GetGroup returns a group to its members or to an administrator
// @Summary Get a group
// @Tags groups
// @Produce json
// @Param name path string true "Group name"
// @Success 200 {object} Response{data=models.Group}
// @Failure 401 {object} Response
// @Failure 404 {object} Response
// @Router /api/groups/{name} [get]
func (h *GroupHandler) GetGroup(c *gin.Context) {
	group, ok := findGroup(c, c.Param("name"))
	if !ok {
		return
	}
	if !authorize(c, h.verifier, middleware.Group(group.Emails()), middleware.Admin()) {
		return
	}
	Success(c, group)
}

// AddMembers lets a member add users to their group
// @Summary Add group members
// @Tags groups
// @Accept json
// @Produce json
// @Param name path string true "Group name"
// @Param request body AddMembersRequest true "Emails"
// @Success 200 {object} Response{data=GroupChange}
// @Failure 400 {object} Response
// @Failure 401 {object} Response
// @Failure 404 {object} Response
// @Router /api/groups/{name}/add [patch]
func (h *GroupHandler) AddMembers(c *gin.Context) {
	h.addMembers(c, false)
}

// InsertMembers lets an administrator add users to any group
// @Summary Add group members (admin)
// @Tags groups
// @Accept json
// @Produce json
// @Param name path string true "Group name"
// @Param request body AddMembersRequest true "Emails"
// @Success 200 {object} Response{data=GroupChange}
// @Failure 400 {object} Response
// @Failure 401 {object} Response
// @Failure 404 {object} Response
// @Router /api/groups/{name}/insert [patch]
func (h *GroupHandler) InsertMembers(c *gin.Context) {
	h.addMembers(c, true)
}

func (h *GroupHandler) addMembers(c *gin.Context, admin bool) {
	var req AddMembersRequest
	if !bindJSON(c, &req) {
		return
	}
	var emails []string
	if req.Emails != nil {
		emails = *req.Emails
	}
	if !requireList(c, "emails", emails, req.Emails != nil) {
		return
	}
	if bad := firstInvalidEmail(emails); bad != "" {
		Fail(c, KindInvalidEmailFormat, "Invalid email format: "+bad)
		return
	}

	group, ok := findGroup(c, c.Param("name"))
	if !ok {
		return
	}
	capability := middleware.Group(group.Emails())
	if admin {
		capability = middleware.Admin()
	}
	if !authorize(c, h.verifier, capability) {
		return
	}

	valid, change, err := classifyMembers(uniqueStrings(normalizeAll(emails)))
	if err != nil {
		FailInternal(c, err, "Failed to check members")
		return
	}
	if len(valid) == 0 {
		FailWithData(c, KindInvalidParameter, "No valid members", change)
		return
	}

	for i := range valid {
		valid[i].GroupID = group.ID
	}
	if err := database.DB.Create(&valid).Error; err != nil {
		FailInternal(c, err, "Failed to add members")
		return
	}

	group.Members = append(group.Members, valid...)
	change.Group = group
	SuccessWithMessage(c, "Members added", change)
}

// classifyMembers splits emails, in order, into new members, addresses already
// grouped and addresses with no user.
func classifyMembers(emails []string) ([]models.GroupMember, GroupChange, error) {
	change := GroupChange{AlreadyInGroup: []string{}, MembersNotFound: []string{}}

	var users []models.User
	if err := database.DB.Where("email IN ?", emails).Find(&users).Error; err != nil {
		return nil, change, err
	}
	var grouped []string
	if err := database.DB.Model(&models.GroupMember{}).Where("email IN ?", emails).Pluck("email", &grouped).Error; err != nil {
		return nil, change, err
	}

	byEmail := make(map[string]models.User, len(users))
	for _, u := range users {
		byEmail[u.Email] = u
	}
	inGroup := make(map[string]bool, len(grouped))
	for _, e := range grouped {
		inGroup[e] = true
	}

	var valid []models.GroupMember
	for _, e := range emails {
		u, ok := byEmail[e]
		switch {
		case !ok:
			change.MembersNotFound = append(change.MembersNotFound, e)
		case inGroup[e]:
			change.AlreadyInGroup = append(change.AlreadyInGroup, e)
		default:
			valid = append(valid, models.GroupMember{Email: e, UserID: u.ID})
		}
	}
	return valid, change, nil
}

func normalizeAll(emails []string) []string {
	out := make([]string, len(emails))
	for i, e := range emails {
		out[i] = normalizeEmail(e)
	}
	return out
}

package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"
)

var contactNotices = map[string]string{
	"associated":    "Contact linked to zip code.",
	"disassociated": "Contact unlinked from zip code.",
	"unchanged":     "No zip code selected, nothing changed.",
}

var contactErrors = map[string]string{
	"associate":    "Failed to link the contact. Try again.",
	"disassociate": "Failed to unlink the contact. Try again.",
}

func (s *Server) Contacts(c *gin.Context) {
	ctx := c.Request.Context()

	contacts, err := s.Directory.ListContacts(ctx)
	if err != nil {
		s.log(c).Error("Error fetching contacts", zap.Error(err))
		c.HTML(http.StatusBadGateway, "contacts.tmpl", gin.H{
			"title": contactsTitle,
			"error": "Failed to load contacts. Check your ACCESS_TOKEN and CUSTOM_OBJECT_TYPE.",
		})
		return
	}

	zips, err := s.Directory.ListZipCodeChoices(ctx)
	if err != nil {
		s.log(c).Warn("Could not load zip codes for linking", zap.Error(err))
	}

	page := gin.H{
		"title":    contactsTitle,
		"contacts": contacts,
		"zipCodes": zips,
	}
	if msg, ok := contactNotices[c.Query("status")]; ok {
		page["notice"] = msg
	}
	if msg, ok := contactErrors[c.Query("error")]; ok {
		page["error"] = msg
	}
	c.HTML(http.StatusOK, "contacts.tmpl", page)
}

// Associate makes the chosen zip code the contact's only zip code.
func (s *Server) Associate(c *gin.Context) {
	contactID := c.Param("id")

	var form AssociationForm
	if err := c.ShouldBindWith(&form, binding.Form); err != nil || form.ZipID == "" {
		c.Redirect(http.StatusSeeOther, "/contacts?status=unchanged")
		return
	}

	if err := s.Directory.Associate(c.Request.Context(), contactID, form.ZipID); err != nil {
		s.log(c).Error("Error associating contact",
			zap.String("contact", contactID), zap.String("zipCode", form.ZipID), zap.Error(err))
		c.Redirect(http.StatusSeeOther, "/contacts?error=associate")
		return
	}
	c.Redirect(http.StatusSeeOther, "/contacts?status=associated")
}

func (s *Server) Disassociate(c *gin.Context) {
	contactID := c.Param("id")

	var form AssociationForm
	if err := c.ShouldBindWith(&form, binding.Form); err != nil || form.ZipID == "" {
		c.Redirect(http.StatusSeeOther, "/contacts?status=unchanged")
		return
	}

	if err := s.Directory.Disassociate(c.Request.Context(), contactID, form.ZipID); err != nil {
		s.log(c).Error("Error disassociating contact",
			zap.String("contact", contactID), zap.String("zipCode", form.ZipID), zap.Error(err))
		c.Redirect(http.StatusSeeOther, "/contacts?error=disassociate")
		return
	}
	c.Redirect(http.StatusSeeOther, "/contacts?status=disassociated")
}

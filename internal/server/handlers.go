package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"

	"github.com/agenthands/groundtruth/internal/core/model"
)

const (
	homeTitle     = "Ground Truth | Housing Data"
	updateTitle   = "Add Zip Code | Ground Truth"
	contactsTitle = "Contacts | Ground Truth"
)

func (s *Server) Home(c *gin.Context) {
	zips, err := s.Directory.ListZipCodes(c.Request.Context())
	if err != nil {
		s.log(c).Error("Error fetching records", zap.Error(err))
		c.HTML(http.StatusBadGateway, "home.tmpl", gin.H{
			"title":   homeTitle,
			"records": []model.ZipCode{},
			"error":   "Failed to load data. Check your ACCESS_TOKEN and CUSTOM_OBJECT_TYPE.",
		})
		return
	}

	page := gin.H{
		"title":   homeTitle,
		"records": zips,
	}
	if c.Query("status") == "created" {
		page["notice"] = "Zip code saved."
	}
	c.HTML(http.StatusOK, "home.tmpl", page)
}

func (s *Server) NewZipCode(c *gin.Context) {
	s.renderUpdate(c, http.StatusOK, gin.H{}, "")
}

func (s *Server) CreateZipCode(c *gin.Context) {
	formData := gin.H{
		"name":               c.PostForm("name"),
		"homeownership_rate": c.PostForm("homeownership_rate"),
		"median_home_age":    c.PostForm("median_home_age"),
	}

	var form ZipCodeForm
	if err := c.ShouldBindWith(&form, binding.Form); err != nil {
		s.log(c).Info("Rejected zip code form", zap.Error(err))
		s.renderUpdate(c, http.StatusBadRequest, formData, validationMessage(err))
		return
	}

	zip, err := s.Directory.CreateZipCode(c.Request.Context(), form.Input(), form.ContactIDs)
	if err != nil {
		s.log(c).Error("Error creating record", zap.Error(err))
		s.renderUpdate(c, http.StatusBadGateway, formData, "Failed to create record. Check your data and try again.")
		return
	}

	s.log(c).Info("Zip code created", zap.String("record", zip.ID), zap.Int("contacts", len(form.ContactIDs)))
	c.Redirect(http.StatusSeeOther, "/?status=created")
}

func (s *Server) renderUpdate(c *gin.Context, status int, formData gin.H, errMsg string) {
	contacts, err := s.Directory.ListContactChoices(c.Request.Context())
	if err != nil {
		s.log(c).Warn("Could not load contacts for the form", zap.Error(err))
	}

	page := gin.H{
		"title":    updateTitle,
		"formData": formData,
		"contacts": contacts,
	}
	if errMsg != "" {
		page["error"] = errMsg
	}
	c.HTML(status, "update.tmpl", page)
}

package controllers

import (
	"net/http"

	"github.com/gbd-solar/solartech-api/config"
	"github.com/gbd-solar/solartech-api/services"
	"github.com/gin-gonic/gin"
)

func companyService() *services.CompanyService {
	return services.NewCompanyService(config.GetDB())
}

// ListCompanies handles GET /api/v1/companies
func ListCompanies(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	companies, err := companyService().List(c.Request.Context(), identity)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, companies)
}

// GetCompany handles GET /api/v1/companies/:id
func GetCompany(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	company, err := companyService().Get(c.Request.Context(), identity, id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, company)
}

// CreateCompany handles POST /api/v1/companies
func CreateCompany(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var input services.CompanyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}

	company, err := companyService().Create(c.Request.Context(), identity, input)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusCreated, company)
}

// UpdateCompany handles PUT /api/v1/companies/:id
func UpdateCompany(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var input services.CompanyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, err)
		return
	}

	company, err := companyService().Update(c.Request.Context(), identity, id, input)
	if err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, company)
}

// DeleteCompany handles DELETE /api/v1/companies/:id
func DeleteCompany(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := companyService().Delete(c.Request.Context(), identity, id); err != nil {
		respondError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{"id": id, "deleted": true})
}

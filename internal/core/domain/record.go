package domain

// SaleStage values are the Spanish labels the CRM has always stored.
const (
	StageNew           = "Nuevo"
	StageDiscovery     = "Descubrimiento"
	StageQualification = "Calificación"
	StageProposal      = "Propuesta"
	StageNegotiation   = "Negociación"
	StageClosedWon     = "Cerrado Ganado"
	StageClosedLost    = "Cerrado Perdido"
)

// SaleStages lists every stage in pipeline order.
var SaleStages = []string{
	StageNew,
	StageDiscovery,
	StageQualification,
	StageProposal,
	StageNegotiation,
	StageClosedWon,
	StageClosedLost,
}

// Industry values.
const (
	IndustryTechnology    = "Tecnología"
	IndustryFinance       = "Finanzas"
	IndustryHealthcare    = "Salud"
	IndustryRetail        = "Retail"
	IndustryManufacturing = "Manufactura"
	IndustryEducation     = "Educación"
	IndustryConstruction  = "Construcción"
	IndustryAutomotive    = "Automotriz"
	IndustryOther         = "Otro"
)

var Industries = []string{
	IndustryTechnology,
	IndustryFinance,
	IndustryHealthcare,
	IndustryRetail,
	IndustryManufacturing,
	IndustryEducation,
	IndustryConstruction,
	IndustryAutomotive,
	IndustryOther,
}

// Lead source values.
const (
	LeadSourceWebsite     = "Sitio Web"
	LeadSourceReferral    = "Referido"
	LeadSourceColdCall    = "Llamada en Frío"
	LeadSourceEvent       = "Evento"
	LeadSourceSocialMedia = "Redes Sociales"
	LeadSourceOther       = "Otro"
)

var LeadSources = []string{
	LeadSourceWebsite,
	LeadSourceReferral,
	LeadSourceColdCall,
	LeadSourceEvent,
	LeadSourceSocialMedia,
	LeadSourceOther,
}

// Record is a sales lead or opportunity. JSON names match the stored blobs and
// backup files, so they must not change.
type Record struct {
	ID               string   `json:"id" bson:"_id"`
	CompanyName      string   `json:"companyName" bson:"companyName"`
	Website          string   `json:"website" bson:"website"`
	ContactPerson    string   `json:"contactPerson" bson:"contactPerson"`
	ContactPhone     string   `json:"contactPhone" bson:"contactPhone"`
	ContactEmail     string   `json:"contactEmail" bson:"contactEmail"`
	City             string   `json:"city" bson:"city"`
	DateAdded        string   `json:"dateAdded" bson:"dateAdded"`
	LastActivityDate string   `json:"lastActivityDate" bson:"lastActivityDate"`
	NextActionDate   string   `json:"nextActionDate" bson:"nextActionDate"`
	NextAction       string   `json:"nextAction" bson:"nextAction"`
	Owner            string   `json:"owner" bson:"owner"`
	Industry         string   `json:"industry" bson:"industry"`
	LeadSource       string   `json:"leadSource" bson:"leadSource"`
	SaleStage        string   `json:"saleStage" bson:"saleStage"`
	Product          []string `json:"product" bson:"product"`
	DealValue        float64  `json:"dealValue" bson:"dealValue"`
	Notes            string   `json:"notes" bson:"notes"`
}

// Clone returns a deep copy so callers can mutate the product list freely.
func (r Record) Clone() Record {
	c := r
	if r.Product != nil {
		c.Product = append([]string(nil), r.Product...)
	}
	return c
}

// IsClosed reports whether the record sits in one of the two closed stages.
func (r Record) IsClosed() bool {
	return r.SaleStage == StageClosedWon || r.SaleStage == StageClosedLost
}

// HasProduct reports whether name is in the record's product list.
func (r Record) HasProduct(name string) bool {
	for _, p := range r.Product {
		if p == name {
			return true
		}
	}
	return false
}

// RecordPatch carries a partial update. Nil fields are left untouched.
type RecordPatch struct {
	CompanyName      *string   `json:"companyName,omitempty"`
	Website          *string   `json:"website,omitempty"`
	ContactPerson    *string   `json:"contactPerson,omitempty"`
	ContactPhone     *string   `json:"contactPhone,omitempty"`
	ContactEmail     *string   `json:"contactEmail,omitempty"`
	City             *string   `json:"city,omitempty"`
	DateAdded        *string   `json:"dateAdded,omitempty"`
	LastActivityDate *string   `json:"lastActivityDate,omitempty"`
	NextActionDate   *string   `json:"nextActionDate,omitempty"`
	NextAction       *string   `json:"nextAction,omitempty"`
	Owner            *string   `json:"owner,omitempty"`
	Industry         *string   `json:"industry,omitempty"`
	LeadSource       *string   `json:"leadSource,omitempty"`
	SaleStage        *string   `json:"saleStage,omitempty"`
	Product          *[]string `json:"product,omitempty"`
	DealValue        *float64  `json:"dealValue,omitempty" validate:"omitempty,gte=0"`
	Notes            *string   `json:"notes,omitempty"`
}

// Apply merges the patch over r and returns the result. r is not modified.
func (p RecordPatch) Apply(r Record) Record {
	out := r.Clone()
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&out.CompanyName, p.CompanyName)
	set(&out.Website, p.Website)
	set(&out.ContactPerson, p.ContactPerson)
	set(&out.ContactPhone, p.ContactPhone)
	set(&out.ContactEmail, p.ContactEmail)
	set(&out.City, p.City)
	set(&out.DateAdded, p.DateAdded)
	set(&out.LastActivityDate, p.LastActivityDate)
	set(&out.NextActionDate, p.NextActionDate)
	set(&out.NextAction, p.NextAction)
	set(&out.Owner, p.Owner)
	set(&out.Industry, p.Industry)
	set(&out.LeadSource, p.LeadSource)
	set(&out.SaleStage, p.SaleStage)
	set(&out.Notes, p.Notes)
	if p.Product != nil {
		out.Product = append([]string{}, (*p.Product)...)
	}
	if p.DealValue != nil {
		out.DealValue = *p.DealValue
	}
	return out
}

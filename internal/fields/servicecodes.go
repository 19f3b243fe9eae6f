package fields

var serviceCodes = map[string]string{
	"03116": "Assessoria ou consultoria de qualquer natureza",
	"02496": "Propaganda e publicidade, promoção de vendas",
}

// ServiceDescription returns the municipal description of code, or "" when unknown.
func ServiceDescription(code string) string {
	return serviceCodes[code]
}

package constants

// Historical claims tables the query gateway may target.
const (
	HistoricalTable        = "dhm"
	HistoricalArchiveTable = "dhm2"
	DefaultHistoricalTable = HistoricalTable
)

// AllPharmaciesCode selects every pharmacy ("Ver Todos").
const AllPharmaciesCode = "00000"

// Authorization history statuses.
const (
	AuthStatusVoided  = "ANULADA"
	UnknownPharmacy   = "UNKNOWN"
	VoidMessagePrefix = "Anulada: "
)

// Listing limits.
const (
	LookupSearchLimit       = 50
	AssistantSearchLimit    = 5
	HistoryListLimit        = 100
	HistoricalDefaultLimit  = 20
	HistoricalMaxLimit      = 100
	HistoricalDefaultSort   = "fechareceta"
	HistoricalDefaultOrder  = "DESC"
	SummaryRowsJSONMaxChars = 5000
	SummaryTruncateAfter    = 20
)

// HistoricalSortFields are the columns the claims listing may be sorted by.
var HistoricalSortFields = []string{
	"fechareceta",
	"nombrefarmacia",
	"nombreafiliado",
	"totalcobertura",
	"codautorizacion",
}

// HistoricalSearchFields are matched with ILIKE by the claims listing search box.
var HistoricalSearchFields = []string{
	"nombrefarmacia",
	"nombreafiliado",
	"cedula",
	"codautorizacion",
	"descripcion",
}

// HistoricalIndexes are created by the apply-indexes command.
var HistoricalIndexes = map[string]string{
	"idx_dhm_simon":           "simon",
	"idx_dhm_fecha_solicitud": "fechadesolicitud",
	"idx_dhm_fecha_receta":    "fechareceta",
	"idx_dhm_nombre_farmacia": "nombrefarmacia",
	"idx_dhm_cedula":          "cedula",
}

// HistoricalTableSchema is the column list of the claims tables as shown to the model.
// The %s verb is replaced with the table name.
const HistoricalTableSchema = `
Table "%s" (Data Histórica de Medicamentos):
- codautorizacion (varchar)
- codigofarmacia (varchar)
- nombrefarmacia (varchar)
- tipofarmacia (varchar)
- numeroafiliado (varchar)
- nombreafiliado (varchar)
- fechanacimiento (varchar)
- edad (varchar)
- sexo (varchar)
- cedula (varchar)
- telefono (varchar)
- doctor (varchar)
- centro (varchar)
- simon (varchar): Código Simón
- descripcion (varchar): Medicamento
- cantidad (varchar): (IMPORTANTE: CAST TO NUMERIC)
- dias (varchar)
- precio (varchar): (IMPORTANTE: CAST TO NUMERIC)
- facturado (varchar): (IMPORTANTE: CAST TO NUMERIC)
- copago (varchar): (IMPORTANTE: CAST TO NUMERIC)
- totalcobertura (varchar): (IMPORTANTE: CAST TO NUMERIC)
- coberturaplancomplementario (varchar)
- coberturaplanvolunatario (varchar)
- coberturaplanpbs (varchar)
- coberturapyp (varchar)
- fechareceta (varchar)
- tiporeceta (varchar)
- fechadesolicitud (varchar)
- horasolicitud (varchar)
- fechadeprocesamiento (varchar)
- cedulasolicitante (varchar)
- pasaporte (varchar)
- licenciadeconducir (varchar)
- permisodetrabajo (varchar)
- fechareverso (varchar)
- motivodereverso (varchar)
- reversado (varchar): 'S' anula, 'N' activa
- usuariogenerador (varchar)
- numerorecetapyp (varchar)
- usuariopyp (varchar)
- esprogramapyp (varchar)
`

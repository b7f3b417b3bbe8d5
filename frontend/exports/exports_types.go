package exports

const ExportTypeBarcodesCSV = "barcodes_csv"

var csvHeader = []string{"section", "code", "timestamp"}

package importer

const MaxImportSize = maxImportSize

package classfinder

// Six logical tables share one pebble store; a record's first byte names
// its table.
const (
	TableSources   byte = 'S' // {fqn}::{jar} -> decompiled source
	TableLoaded    byte = 'L' // jar path -> "1", fully loaded and drained
	TableRegistry  byte = 'R' // fqn -> JSON array of jar paths
	TableCataloged byte = 'C' // jar path -> "1", class list merged
	TableHotspots  byte = 'H' // jar path -> JSON hotspot record
	TableMtimes    byte = 'M' // jar path -> last seen mtime, unix nanos
)

func TKey(table byte, key string) []byte {
	ret := make([]byte, 0, 1+len(key))
	ret = append(ret, table)
	return append(ret, key...)
}

func tableBounds(table byte) (lo, hi []byte) {
	return []byte{table}, []byte{table + 1}
}

// SourceKey names one (class, artifact) pair in the sources table. The
// same class decompiled out of two jars is two records.
func SourceKey(fqn, jarPath string) string {
	return fqn + "::" + jarPath
}

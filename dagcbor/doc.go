/*
Package dagcbor extracts CID links from DAG-CBOR encoded blocks without decoding them into a value tree.

The decoder walks the CBOR data item grammar (RFC 8949 §3) directly over the input buffer: scalars are skipped after their header, strings are skipped by length, arrays and maps are recursed into, and tags are transparent. The one exception is tag 42, the IPLD convention for embedding a CID as a byte string: those payloads are parsed and, if the multihash code is one the Extractor was configured to accept, returned as a Link.

All four indefinite-length forms (byte string, text string, array, map) are supported. Nesting depth is bounded, and every malformed input results in a *DecodeError wrapping one of the Err* sentinels, never a panic.

The typical caller is a block store doing garbage collection or prefetching:

	ex := dagcbor.NewExtractor(dagcbor.DefaultOptions())
	for l, err := range ex.Links(blk.RawData()) {
		if err != nil {
			return err
		}
		fmt.Println(l.Cid())
	}

Indefinite-length byte strings are not valid CID payloads in DAG-CBOR, and are rejected with ErrInvalidCidEncoding unless Options.AllowIndefiniteLinks is set, in which case the chunks are concatenated and parsed as a single payload.
*/
package dagcbor

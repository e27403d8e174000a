// Package storeindex maintains the global, paginated index of a store's
// auction cache records.
//
// Each page holds cache record addresses ordered by descending timestamp. The
// only mutation is a positioned insert: the caller chooses the page and the
// offset, and supplies the records either side of the insertion point so the
// ordering can be checked locally without reading the rest of the page's
// records.
//
// The Processor validates and applies the insert against working copies of
// the slots. It never writes anything itself, the host commits the working
// copies only when the processor succeeds. PlanInsert and PageReader are the
// client side of the same contract.
package storeindex

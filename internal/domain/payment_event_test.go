package domain

import "testing"

func TestSortMetadataSources(t *testing.T) {
	sources := []MetadataSource{
		{Kind: SourceCustomer, ID: "cus_1"},
		{Kind: "invoice", ID: "in_1"},
		{Kind: SourceSubscription, ID: "sub_1"},
		{Kind: SourcePaymentIntent, ID: "pi_1"},
		{Kind: SourceCharge, ID: "ch_1"},
		{Kind: SourceRaw, ID: "ctx"},
		{Kind: SourceCharge, ID: "ch_2"},
	}

	SortMetadataSources(sources)

	want := []string{"ctx", "ch_1", "ch_2", "pi_1", "sub_1", "cus_1", "in_1"}
	for i, id := range want {
		if sources[i].ID != id {
			t.Fatalf("position %d = %s, want %s (got %v)", i, sources[i].ID, id, sources)
		}
	}
}

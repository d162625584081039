package hashing

import "github.com/grailbio/sketch/biosimd"

// codonTable maps an uppercase 3-letter DNA codon to its single-letter
// amino acid, or '*' for a stop codon. Codons containing any non-ACGT
// byte translate to 'X' (unknown).
var codonTable = map[string]byte{
	"TTT": 'F', "TTC": 'F', "TTA": 'L', "TTG": 'L',
	"CTT": 'L', "CTC": 'L', "CTA": 'L', "CTG": 'L',
	"ATT": 'I', "ATC": 'I', "ATA": 'I', "ATG": 'M',
	"GTT": 'V', "GTC": 'V', "GTA": 'V', "GTG": 'V',
	"TCT": 'S', "TCC": 'S', "TCA": 'S', "TCG": 'S',
	"CCT": 'P', "CCC": 'P', "CCA": 'P', "CCG": 'P',
	"ACT": 'T', "ACC": 'T', "ACA": 'T', "ACG": 'T',
	"GCT": 'A', "GCC": 'A', "GCA": 'A', "GCG": 'A',
	"TAT": 'Y', "TAC": 'Y', "TAA": '*', "TAG": '*',
	"CAT": 'H', "CAC": 'H', "CAA": 'Q', "CAG": 'Q',
	"AAT": 'N', "AAC": 'N', "AAA": 'K', "AAG": 'K',
	"GAT": 'D', "GAC": 'D', "GAA": 'E', "GAG": 'E',
	"TGT": 'C', "TGC": 'C', "TGA": '*', "TGG": 'W',
	"CGT": 'R', "CGC": 'R', "CGA": 'R', "CGG": 'R',
	"AGT": 'S', "AGC": 'S', "AGA": 'R', "AGG": 'R',
	"GGT": 'G', "GGC": 'G', "GGA": 'G', "GGG": 'G',
}

// translateFrame translates seq, starting at offset, into an amino-acid
// byte slice (one byte per codon, '*' for stop, 'X' for any codon
// containing a non-ACGT byte or otherwise unrecognized).
func translateFrame(seq []byte, offset int) []byte {
	n := (len(seq) - offset) / 3
	if n <= 0 {
		return nil
	}
	out := make([]byte, n)
	codon := make([]byte, 3)
	for i := 0; i < n; i++ {
		start := offset + i*3
		copy(codon, seq[start:start+3])
		for j, b := range codon {
			codon[j] = upperACGT(b)
		}
		if biosimd.IsNonACGTPresent(codon) {
			out[i] = 'X'
			continue
		}
		aa, ok := codonTable[string(codon)]
		if !ok {
			aa = 'X'
		}
		out[i] = aa
	}
	return out
}

func upperACGT(b byte) byte {
	switch b {
	case 'a':
		return 'A'
	case 'c':
		return 'C'
	case 'g':
		return 'G'
	case 't':
		return 'T'
	default:
		return b
	}
}

// sixFrameTranslations returns the six amino-acid translations of seq: the
// three forward frames followed by the three reverse-complement frames.
func sixFrameTranslations(seq []byte) [6][]byte {
	rc := make([]byte, len(seq))
	biosimd.ReverseComp8(rc, seq)

	var frames [6][]byte
	frames[0] = translateFrame(seq, 0)
	frames[1] = translateFrame(seq, 1)
	frames[2] = translateFrame(seq, 2)
	frames[3] = translateFrame(rc, 0)
	frames[4] = translateFrame(rc, 1)
	frames[5] = translateFrame(rc, 2)
	return frames
}
